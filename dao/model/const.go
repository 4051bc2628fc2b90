// Choice sets stored as plain strings, the values are shown verbatim by the frontend
// and appear as-is in spreadsheet uploads.
package model

import "github.com/samber/lo"

type Flavour string

const (
	FlavourS4HPrivate Flavour = "S/4H Private"
	FlavourS4HPublic  Flavour = "S/4H Public"
	FlavourS4Cloud    Flavour = "S/4 Cloud"
	FlavourS4HOP      Flavour = "S/4H OP"
)

var Flavours = []Flavour{FlavourS4HPrivate, FlavourS4HPublic, FlavourS4Cloud, FlavourS4HOP}

type BFS string

const (
	BFSSingle BFS = "Single"
	BFSMulti  BFS = "Multi"
)

var BFSValues = []BFS{BFSSingle, BFSMulti}

type TShirtSize string

const (
	TShirtLarge  TShirtSize = "Large"
	TShirtMedium TShirtSize = "Medium"
	TShirtSmall  TShirtSize = "Small"
)

var TShirtSizes = []TShirtSize{TShirtLarge, TShirtMedium, TShirtSmall}

type Hardware string

const (
	HardwareGCP   Hardware = "GCP"
	HardwareAzure Hardware = "Azure"
)

var HardwareValues = []Hardware{HardwareGCP, HardwareAzure}

// Item build status, in the order a build normally goes through.
type ItemStatus string

const (
	StatusReviewingECS       ItemStatus = "Reviewing eCS"
	StatusBackupFromSource   ItemStatus = "Backup from source"
	StatusOATSimulation      ItemStatus = "OAT Simulation"
	StatusServerProvisioning ItemStatus = "Server Provisioning"
	StatusDBInstallation     ItemStatus = "DB Installation"
	StatusInstallation       ItemStatus = "Installation"
	StatusPostInstallation   ItemStatus = "Post Installation"
	StatusClient000Custom    ItemStatus = "Client 000 Customization"
	StatusWithSLCForTMS      ItemStatus = "with SLC for TMS"
	StatusBackFromSLC        ItemStatus = "Back from SLC"
	StatusHigherClientCustom ItemStatus = "Higher client customization"
	StatusQualityChecks      ItemStatus = "Quality Checks"
	StatusHandedOverToPLO    ItemStatus = "Handedover to PLO"
	StatusRebuild            ItemStatus = "REBUILD"
	StatusCancelled          ItemStatus = "Cancelled"
)

var ItemStatuses = []ItemStatus{
	StatusReviewingECS,
	StatusBackupFromSource,
	StatusOATSimulation,
	StatusServerProvisioning,
	StatusDBInstallation,
	StatusInstallation,
	StatusPostInstallation,
	StatusClient000Custom,
	StatusWithSLCForTMS,
	StatusBackFromSLC,
	StatusHigherClientCustom,
	StatusQualityChecks,
	StatusHandedOverToPLO,
	StatusRebuild,
	StatusCancelled,
}

// Team a forecast is assigned to.
type AssignedTo string

const (
	AssignedODC AssignedTo = "ODC"
	AssignedCOE AssignedTo = "COE"
	AssignedTBD AssignedTo = "TBD"
)

var AssignedToValues = []AssignedTo{AssignedODC, AssignedCOE, AssignedTBD}

func (f Flavour) Valid() bool    { return lo.Contains(Flavours, f) }
func (b BFS) Valid() bool        { return lo.Contains(BFSValues, b) }
func (t TShirtSize) Valid() bool { return lo.Contains(TShirtSizes, t) }
func (h Hardware) Valid() bool   { return lo.Contains(HardwareValues, h) }
func (s ItemStatus) Valid() bool { return lo.Contains(ItemStatuses, s) }
func (a AssignedTo) Valid() bool { return lo.Contains(AssignedToValues, a) }
