package handler

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/raids-lab/buildtracker/dao/model"
	"github.com/raids-lab/buildtracker/dao/query"
	"github.com/raids-lab/buildtracker/internal/resputil"
	"github.com/raids-lab/buildtracker/internal/util"
	"github.com/raids-lab/buildtracker/pkg/alert"
	"github.com/raids-lab/buildtracker/pkg/config"
	"github.com/raids-lab/buildtracker/pkg/importer"
	"github.com/raids-lab/buildtracker/pkg/logutils"
)

type Manager interface {
	GetName() string
	RegisterPublic(group *gin.RouterGroup)
	RegisterProtected(group *gin.RouterGroup)
	RegisterAdmin(group *gin.RouterGroup)
}

// RegisterConfig carries the dependencies shared by all managers.
type RegisterConfig struct {
	Query    *query.Query
	Config   *config.Config
	TokenMgr *util.TokenManager
	Alerter  alert.AlertInterface
}

// Registers is filled by the init functions of the manager files.
var Registers []func(conf *RegisterConfig) Manager

// respondError maps errors of the lower layers to the response codes.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *model.ValidationError
		rowErr        *importer.RowError
	)
	switch {
	case errors.Is(err, query.ErrNotFound):
		resputil.NotFoundError(c, "Not found.")
	case errors.As(err, &validationErr), errors.As(err, &rowErr):
		resputil.BadRequestError(c, err.Error())
	default:
		logutils.Log.WithFields(logutils.Fields{"path": c.FullPath()}).Error(err)
		resputil.Error(c, err.Error(), resputil.NotSpecified)
	}
}

type IDReq struct {
	ID uint `uri:"id" binding:"required"`
}

func bindID(c *gin.Context) (uint, bool) {
	var req IDReq
	if err := c.ShouldBindUri(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return 0, false
	}
	return req.ID, true
}

func badReference(field string, value any) error {
	return &model.ValidationError{
		Field:   field,
		Message: fmt.Sprintf("invalid pk %q - object does not exist", fmt.Sprint(value)),
	}
}

// bodyFields decodes the top level of a JSON object body, keyed by field name.
func bodyFields(body []byte) (map[string]json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// requireFields 全量更新时请求体必须给出全部必填字段，null 视为缺失
func requireFields(fields map[string]json.RawMessage, names ...string) error {
	for _, name := range names {
		raw, ok := fields[name]
		if !ok || string(raw) == "null" {
			return &model.ValidationError{Field: name, Message: "this field is required"}
		}
	}
	return nil
}
