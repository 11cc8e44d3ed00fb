package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thesabbir/phpmanager/pkg/audit"
	apierrors "github.com/thesabbir/phpmanager/pkg/errors"
	"github.com/thesabbir/phpmanager/pkg/ini"
	"github.com/thesabbir/phpmanager/pkg/transaction"
	"github.com/thesabbir/phpmanager/pkg/util"
)

// ExtensionResponse is an installed or enabled extension
type ExtensionResponse struct {
	Name    string `json:"name" example:"php_curl.dll"`
	Enabled bool   `json:"enabled"`
}

// ExtensionRequest enables or disables an extension
type ExtensionRequest struct {
	Enabled *bool  `json:"enabled"`
	Message string `json:"message"`
}

// listExtensions godoc
// @Summary List extensions
// @Description Enabled extensions in file order followed by the disabled ones found in the extension directory
// @Tags extensions
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Security APIKey
// @Router /extensions [get]
func (h *Handler) listExtensions(c *gin.Context) {
	_, doc, ok := h.load(c)
	if !ok {
		return
	}

	exts := doc.Extensions()
	resp := make([]ExtensionResponse, 0, len(exts))
	enabled := 0
	for _, e := range exts {
		resp = append(resp, ExtensionResponse{Name: e.Name, Enabled: e.Enabled})
		if e.Enabled {
			enabled++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"extensions": resp,
		"enabled":    enabled,
		"count":      len(resp),
	})
}

// setExtension godoc
// @Summary Enable or disable an extension
// @Tags extensions
// @Accept json
// @Produce json
// @Param name path string true "Extension file name"
// @Param request body ExtensionRequest true "Desired state"
// @Success 200 {object} ChangeResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]interface{}
// @Security APIKey
// @Router /extensions/{name} [put]
func (h *Handler) setExtension(c *gin.Context) {
	var req ExtensionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err)
		return
	}
	if req.Enabled == nil {
		apierrors.ValidationError(c, errors.New("enabled is required"))
		return
	}

	name := c.Param("name")
	if err := util.ValidateExtensionName(name); err != nil {
		apierrors.ValidationError(c, err)
		return
	}

	r, err := h.newReconciler()
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	op := transaction.Operation{
		Action:  audit.ActionExtensionEnable,
		Message: req.Message,
	}
	if !*req.Enabled {
		op.Action = audit.ActionExtensionDisable
	}
	if op.Message == "" {
		op.Message = string(op.Action) + " " + name
	}

	changed, res, err := h.tx.UpdateDocument(c.Request.Context(), r, op, func(doc *ini.Document) (bool, error) {
		return r.UpdateExtensions(doc, ini.NewExtension(name, *req.Enabled))
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, newChangeResponse(changed, res))
}
