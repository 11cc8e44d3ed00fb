package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/thesabbir/phpmanager/pkg/errors"
	"github.com/thesabbir/phpmanager/pkg/phpconfig"
	"github.com/thesabbir/phpmanager/pkg/transaction"
)

// IssueResponse is a configuration issue with its messages rendered
type IssueResponse struct {
	Index          int    `json:"index" example:"3"`
	Name           string `json:"name" example:"PHPRC"`
	Setting        string `json:"setting" example:"PHPRC"`
	Current        string `json:"current_value"`
	Recommended    string `json:"recommended_value" example:"C:\\PHP"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

func newIssueResponse(issue phpconfig.ConfigIssue) IssueResponse {
	return IssueResponse{
		Index:          int(issue.Index),
		Name:           issue.Index.String(),
		Setting:        issue.SettingKey,
		Current:        issue.CurrentValue,
		Recommended:    issue.RecommendedValue,
		Description:    issue.Description(),
		Recommendation: issue.Recommendation(),
	}
}

// listIssues godoc
// @Summary List configuration issues
// @Description Compare the ini file and host configuration with the recommended PHP setup
// @Tags issues
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Security APIKey
// @Router /issues [get]
func (h *Handler) listIssues(c *gin.Context) {
	r, doc, ok := h.load(c)
	if !ok {
		return
	}

	issues, err := r.Validate(doc)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	resp := make([]IssueResponse, 0, len(issues))
	for _, issue := range issues {
		resp = append(resp, newIssueResponse(issue))
	}

	c.JSON(http.StatusOK, gin.H{
		"issues": resp,
		"count":  len(resp),
	})
}

// ApplyRequest selects the issues to remediate
type ApplyRequest struct {
	// Issue names or numbers
	Issues []string `json:"issues" example:"PHPRC,LogErrors"`
	// Apply every issue currently reported
	All     bool   `json:"all"`
	Message string `json:"message" example:"Fix PHP setup"`
}

// ApplyResponse reports what an apply changed
type ApplyResponse struct {
	HostChanges   []string `json:"host_changes"`
	IniChanges    []string `json:"ini_changes"`
	TransactionID string   `json:"transaction_id"`
	SnapshotID    string   `json:"snapshot_id"`
}

// applyIssues godoc
// @Summary Apply recommended configuration
// @Description Apply the remediation of the selected issues. The ini file is snapshotted first.
// @Tags issues
// @Accept json
// @Produce json
// @Param request body ApplyRequest true "Issues to apply"
// @Success 200 {object} ApplyResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]interface{}
// @Failure 500 {object} map[string]string
// @Security APIKey
// @Router /issues/apply [post]
func (h *Handler) applyIssues(c *gin.Context) {
	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err)
		return
	}

	r, doc, ok := h.load(c)
	if !ok {
		return
	}

	var selected []phpconfig.IssueIndex
	if req.All {
		issues, err := r.Validate(doc)
		if err != nil {
			apierrors.Respond(c, err)
			return
		}
		for _, issue := range issues {
			selected = append(selected, issue.Index)
		}
	} else {
		if len(req.Issues) == 0 {
			apierrors.ValidationError(c, nil)
			return
		}
		for _, name := range req.Issues {
			idx, err := phpconfig.ParseIssueIndex(name)
			if err != nil {
				apierrors.Respond(c, err)
				return
			}
			selected = append(selected, idx)
		}
	}

	if len(selected) == 0 {
		c.JSON(http.StatusOK, ApplyResponse{HostChanges: []string{}, IniChanges: []string{}})
		return
	}

	applied, res, err := h.tx.ApplyRecommended(c.Request.Context(), r, selected, req.Message)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, newApplyResponse(applied, res))
}

func newApplyResponse(applied *phpconfig.ApplyResult, res *transaction.Result) ApplyResponse {
	resp := ApplyResponse{
		HostChanges:   issueNames(applied.HostChanges),
		IniChanges:    issueNames(applied.IniChanges),
		TransactionID: res.TxID,
		SnapshotID:    res.SnapshotID,
	}
	return resp
}

func issueNames(indexes []phpconfig.IssueIndex) []string {
	names := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		names = append(names, idx.String())
	}
	return names
}
