package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thesabbir/phpmanager/pkg/audit"
	apierrors "github.com/thesabbir/phpmanager/pkg/errors"
	"github.com/thesabbir/phpmanager/pkg/ini"
	"github.com/thesabbir/phpmanager/pkg/transaction"
	"github.com/thesabbir/phpmanager/pkg/util"
)

// SettingResponse is one directive of the ini file
type SettingResponse struct {
	Name    string `json:"name" example:"memory_limit"`
	Value   string `json:"value" example:"128M"`
	Section string `json:"section" example:"PHP"`
}

func newSettingResponse(s *ini.Setting) SettingResponse {
	return SettingResponse{Name: s.Name, Value: s.Value, Section: s.Section}
}

// SettingRequest is the body of a setting update
type SettingRequest struct {
	Value   string `json:"value" example:"256M"`
	Section string `json:"section" example:"PHP"`
	Message string `json:"message"`
}

// ChangeResponse reports whether a write modified the ini file
type ChangeResponse struct {
	Changed       bool   `json:"changed"`
	TransactionID string `json:"transaction_id,omitempty"`
	SnapshotID    string `json:"snapshot_id,omitempty"`
}

func newChangeResponse(changed bool, res *transaction.Result) ChangeResponse {
	resp := ChangeResponse{Changed: changed}
	if res != nil {
		resp.TransactionID = res.TxID
		resp.SnapshotID = res.SnapshotID
	}
	return resp
}

// listSettings godoc
// @Summary List settings
// @Description List the directives of the ini file, optionally limited to one section
// @Tags settings
// @Produce json
// @Param section query string false "Section name"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Security APIKey
// @Router /settings [get]
func (h *Handler) listSettings(c *gin.Context) {
	_, doc, ok := h.load(c)
	if !ok {
		return
	}

	section := c.Query("section")
	settings := make([]SettingResponse, 0)
	for _, s := range doc.Settings() {
		if section != "" && !strings.EqualFold(s.Section, section) {
			continue
		}
		settings = append(settings, newSettingResponse(s))
	}

	c.JSON(http.StatusOK, gin.H{
		"settings": settings,
		"sections": doc.Sections(),
		"count":    len(settings),
	})
}

// getSetting godoc
// @Summary Get a setting
// @Tags settings
// @Produce json
// @Param name path string true "Setting name"
// @Success 200 {object} SettingResponse
// @Failure 404 {object} map[string]string
// @Security APIKey
// @Router /settings/{name} [get]
func (h *Handler) getSetting(c *gin.Context) {
	_, doc, ok := h.load(c)
	if !ok {
		return
	}

	name := c.Param("name")
	s, found := doc.GetSetting(name)
	if !found {
		apierrors.NotFound(c, fmt.Errorf("setting %q not found", name))
		return
	}

	c.JSON(http.StatusOK, newSettingResponse(s))
}

// setSetting godoc
// @Summary Add or update a setting
// @Description Set a directive. New directives are added at the end of their section.
// @Tags settings
// @Accept json
// @Produce json
// @Param name path string true "Setting name"
// @Param request body SettingRequest true "New value"
// @Success 200 {object} ChangeResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]interface{}
// @Security APIKey
// @Router /settings/{name} [put]
func (h *Handler) setSetting(c *gin.Context) {
	var req SettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err)
		return
	}

	r, err := h.newReconciler()
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	name := c.Param("name")
	message := req.Message
	if message == "" {
		message = fmt.Sprintf("Set %s = %s", name, req.Value)
	}

	changed, res, err := h.tx.UpdateDocument(c.Request.Context(), r, transaction.Operation{
		Action:  audit.ActionSettingUpdate,
		Message: message,
	}, func(doc *ini.Document) (bool, error) {
		return r.AddOrUpdateSettings(doc, ini.NewSetting(name, req.Value, req.Section))
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, newChangeResponse(changed, res))
}

// deleteSetting godoc
// @Summary Remove a setting
// @Tags settings
// @Produce json
// @Param name path string true "Setting name"
// @Success 200 {object} ChangeResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]interface{}
// @Security APIKey
// @Router /settings/{name} [delete]
func (h *Handler) deleteSetting(c *gin.Context) {
	name := c.Param("name")
	if err := util.ValidateSettingName(name); err != nil {
		apierrors.ValidationError(c, err)
		return
	}

	r, doc, ok := h.load(c)
	if !ok {
		return
	}
	if _, found := doc.GetSetting(name); !found {
		apierrors.NotFound(c, fmt.Errorf("setting %q not found", name))
		return
	}

	changed, res, err := h.tx.UpdateDocument(c.Request.Context(), r, transaction.Operation{
		Action:  audit.ActionSettingRemove,
		Message: "Remove " + name,
	}, func(doc *ini.Document) (bool, error) {
		return r.RemoveSetting(doc, name)
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, newChangeResponse(changed, res))
}
