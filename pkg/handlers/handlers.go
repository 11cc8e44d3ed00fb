// Package handlers exposes the reconciler over HTTP
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/thesabbir/phpmanager/pkg/errors"
	"github.com/thesabbir/phpmanager/pkg/ini"
	"github.com/thesabbir/phpmanager/pkg/phpconfig"
	"github.com/thesabbir/phpmanager/pkg/transaction"
)

// ReconcilerFactory builds a reconciler over freshly read host configuration
type ReconcilerFactory func() (*phpconfig.Reconciler, error)

// Handler serves the PHP configuration API
type Handler struct {
	newReconciler ReconcilerFactory
	tx            *transaction.Manager
}

// New creates a handler. Writes go through tx so they are snapshotted and
// recorded.
func New(newReconciler ReconcilerFactory, tx *transaction.Manager) *Handler {
	return &Handler{newReconciler: newReconciler, tx: tx}
}

// Register mounts the API routes on r
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/info", h.getInfo)

	r.GET("/issues", h.listIssues)
	r.POST("/issues/apply", h.applyIssues)

	r.GET("/settings", h.listSettings)
	r.GET("/settings/:name", h.getSetting)
	r.PUT("/settings/:name", h.setSetting)
	r.DELETE("/settings/:name", h.deleteSetting)

	r.GET("/extensions", h.listExtensions)
	r.PUT("/extensions/:name", h.setExtension)
}

// load builds a reconciler and reads its ini file, writing the error
// response itself on failure
func (h *Handler) load(c *gin.Context) (*phpconfig.Reconciler, *ini.Document, bool) {
	r, err := h.newReconciler()
	if err != nil {
		apierrors.Respond(c, err)
		return nil, nil, false
	}

	doc, err := r.LoadDocument()
	if err != nil {
		apierrors.Respond(c, err)
		return nil, nil, false
	}

	return r, doc, true
}

// HealthHandler godoc
// @Summary Health check
// @Description Check if the API server is running
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// getInfo godoc
// @Summary PHP registration summary
// @Description Handler, executable, version, ini file and extension counts of the registered PHP
// @Tags php
// @Produce json
// @Success 200 {object} phpconfig.Info
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]interface{}
// @Security APIKey
// @Router /info [get]
func (h *Handler) getInfo(c *gin.Context) {
	r, doc, ok := h.load(c)
	if !ok {
		return
	}

	info, err := r.Info(doc)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}
