package handler

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/raids-lab/buildtracker/dao/model"
	"github.com/raids-lab/buildtracker/dao/query"
	"github.com/raids-lab/buildtracker/internal/resputil"
	"github.com/raids-lab/buildtracker/pkg/alert"
	"github.com/raids-lab/buildtracker/pkg/importer"
	"github.com/raids-lab/buildtracker/pkg/logutils"
	"github.com/raids-lab/buildtracker/pkg/metrics"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewUploadMgr)
}

type UploadMgr struct {
	name    string
	q       *query.Query
	alerter alert.AlertInterface
}

func NewUploadMgr(conf *RegisterConfig) Manager {
	return &UploadMgr{
		name:    "upload",
		q:       conf.Query,
		alerter: conf.Alerter,
	}
}

func (mgr *UploadMgr) GetName() string { return mgr.name }

func (mgr *UploadMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *UploadMgr) RegisterProtected(g *gin.RouterGroup) {
	g.POST("/upload-excel", mgr.UploadExcel)
	g.GET("/upload-excel/template", mgr.DownloadTemplate)
}

func (mgr *UploadMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type UploadResp struct {
	Message string   `json:"message"`
	Created int      `json:"created"`
	SIDs    []string `json:"sids"`
}

// UploadExcel godoc
// @Summary 通过表格批量导入 Item
// @Description 支持 .xls 与 .xlsx，首行为列名。任何一行出错时整批不导入
// @Tags Upload
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param file formData file true "表格文件"
// @Success 201 {object} resputil.Response[UploadResp] "导入成功"
// @Failure 400 {object} resputil.Response[any] "文件格式错误或某行数据非法"
// @Failure 500 {object} resputil.Response[any] "其他错误"
// @Router /api/upload-excel [post]
func (mgr *UploadMgr) UploadExcel(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		resputil.BadRequestError(c, "No file provided.")
		return
	}
	if !importer.SupportedExtension(fileHeader.Filename) {
		metrics.ImportFailures.Inc()
		resputil.BadRequestError(c, importer.ErrUnsupportedFormat.Error())
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	defer file.Close()

	rows, err := importer.ReadRows(fileHeader.Filename, file)
	if err != nil {
		mgr.rejectUpload(c, fileHeader.Filename, err)
		return
	}

	lookup, err := mgr.lookup(c)
	if err != nil {
		respondError(c, err)
		return
	}
	items, err := importer.BuildItems(rows, lookup)
	if err != nil {
		mgr.rejectUpload(c, fileHeader.Filename, err)
		return
	}

	sids := make([]string, len(items))
	for i, item := range items {
		sids[i] = item.SID
	}
	existing, err := mgr.q.ExistingSIDs(c, sids)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(existing) > 0 {
		mgr.rejectUpload(c, fileHeader.Filename,
			fmt.Errorf("item with sid %s already exists", strings.Join(existing, ", ")))
		return
	}

	if err = mgr.q.CreateItems(c, items); err != nil {
		metrics.ImportFailures.Inc()
		respondError(c, err)
		return
	}
	metrics.ImportedItems.Add(float64(len(items)))
	logutils.Log.WithFields(logutils.Fields{"file": fileHeader.Filename, "items": len(items)}).
		Info("excel data uploaded")

	mgr.notifyImported(c, items)
	resputil.Created(c, UploadResp{
		Message: "Excel data uploaded successfully.",
		Created: len(items),
		SIDs:    sids,
	})
}

func (mgr *UploadMgr) rejectUpload(c *gin.Context, filename string, err error) {
	metrics.ImportFailures.Inc()
	logutils.Log.WithFields(logutils.Fields{"file": filename}).Warnf("reject upload: %v", err)
	resputil.BadRequestError(c, err.Error())
}

func (mgr *UploadMgr) lookup(c *gin.Context) (importer.Lookup, error) {
	plos, err := mgr.q.PLONameMap(c)
	if err != nil {
		return importer.Lookup{}, err
	}
	processors, err := mgr.q.ProcessorNameMap(c)
	if err != nil {
		return importer.Lookup{}, err
	}
	return importer.Lookup{PLOs: plos, Processors: processors}, nil
}

// notifyImported treats imported items like created ones: those already in the
// terminal status are announced once.
func (mgr *UploadMgr) notifyImported(c *gin.Context, items []*model.Item) {
	terminal := mgr.alerter.TerminalStatus()
	for _, item := range items {
		if item.Status != terminal {
			continue
		}
		stored, err := mgr.q.GetItemBySID(c, item.SID)
		if err != nil {
			logutils.Log.Errorf("reload imported item %s: %v", item.SID, err)
			continue
		}
		notifyTransition(c, mgr.alerter, stored, "")
	}
}

// DownloadTemplate godoc
// @Summary 下载导入模板
// @Description 第一张表为列名，第二张表为各枚举字段的可选值
// @Tags Upload
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security Bearer
// @Success 200 {file} file "模板文件"
// @Failure 500 {object} resputil.Response[any] "其他错误"
// @Router /api/upload-excel/template [get]
func (mgr *UploadMgr) DownloadTemplate(c *gin.Context) {
	f, err := importer.Template()
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\"item_upload_template.xlsx\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		logutils.Log.Errorf("write template: %v", err)
	}
}
