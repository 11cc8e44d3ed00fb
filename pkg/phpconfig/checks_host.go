package phpconfig

import (
	"strconv"
	"strings"

	"github.com/thesabbir/phpmanager/pkg/ini"
	"github.com/thesabbir/phpmanager/pkg/util"
)

const indexPHP = "index.php"

// defaultDocumentRule wants index.php first in the default document list
type defaultDocumentRule struct{}

func (defaultDocumentRule) Index() IssueIndex { return IssueDefaultDocument }

func (defaultDocumentRule) Check(r *Reconciler, _ *ini.Document) (*ConfigIssue, error) {
	list, err := r.host.GetDefaultDocumentList()
	if err != nil {
		return nil, err
	}

	idx := list.IndexOf(indexPHP)
	if idx == 0 {
		return nil, nil
	}

	key := MsgDefaultDocumentNotFirst
	if idx < 0 {
		key = MsgDefaultDocumentMissing
	}

	return &ConfigIssue{
		SettingKey:        "defaultDocument",
		CurrentValue:      strings.Join(list.Values(), ", "),
		RecommendedValue:  indexPHP,
		DescriptionKey:    key,
		RecommendationKey: MsgDefaultDocumentRecommend,
		Index:             IssueDefaultDocument,
	}, nil
}

func (defaultDocumentRule) ApplyHost(r *Reconciler) (bool, error) {
	list, err := r.host.GetDefaultDocumentList()
	if err != nil {
		return false, err
	}

	idx := list.IndexOf(indexPHP)
	if idx == 0 {
		return false, nil
	}

	// Writing below the server level with only inherited entries would
	// redefine them; take a local copy of the whole list first
	if !r.host.IsServerLevelPath() && !list.HasLocal() {
		for _, f := range list.Files {
			f.Local = true
		}
	}

	doc := &DefaultDocument{Value: indexPHP}
	if idx > 0 {
		doc = list.Files[idx]
		list.Files = append(list.Files[:idx], list.Files[idx+1:]...)
	}
	doc.Local = true

	list.Files = append([]*DefaultDocument{doc}, list.Files...)
	return true, nil
}

// resourceTypeRule wants the handler to serve files and folders
type resourceTypeRule struct{}

func (resourceTypeRule) Index() IssueIndex { return IssueResourceType }

func (resourceTypeRule) Check(r *Reconciler, _ *ini.Document) (*ConfigIssue, error) {
	if r.handler.ResourceType == ResourceEither {
		return nil, nil
	}

	return &ConfigIssue{
		SettingKey:        "resourceType",
		CurrentValue:      string(r.handler.ResourceType),
		RecommendedValue:  string(ResourceEither),
		DescriptionKey:    MsgResourceTypeIncorrect,
		RecommendationKey: MsgResourceTypeRecommend,
		Index:             IssueResourceType,
	}, nil
}

func (resourceTypeRule) ApplyHost(r *Reconciler) (bool, error) {
	if r.handler.ResourceType == ResourceEither {
		return false, nil
	}
	r.handler.ResourceType = ResourceEither
	return true, nil
}

// maxRequestsRule wants PHP_FCGI_MAX_REQUESTS at or above the application's
// instanceMaxRequests, so PHP never recycles before the host does
type maxRequestsRule struct{}

func (maxRequestsRule) Index() IssueIndex { return IssuePHPMaxRequests }

func (maxRequestsRule) Check(r *Reconciler, _ *ini.Document) (*ConfigIssue, error) {
	limit := r.app.InstanceMaxRequests
	current := ""
	key := MsgPHPMaxRequestsNotSet

	if v, ok := r.app.GetEnv(EnvMaxRequests); ok && v.Value != "" {
		current = v.Value
		n, err := strconv.ParseInt(strings.TrimSpace(v.Value), 10, 64)
		if err == nil && n >= limit {
			return nil, nil
		}
		key = MsgPHPMaxRequestsTooLow
	}

	return &ConfigIssue{
		SettingKey:        EnvMaxRequests,
		CurrentValue:      current,
		RecommendedValue:  strconv.FormatInt(limit, 10),
		DescriptionKey:    key,
		RecommendationKey: MsgPHPMaxRequestsRecommend,
		Index:             IssuePHPMaxRequests,
	}, nil
}

func (rule maxRequestsRule) ApplyHost(r *Reconciler) (bool, error) {
	issue, err := rule.Check(r, nil)
	if err != nil || issue == nil {
		return false, err
	}
	return r.app.SetEnv(EnvMaxRequests, issue.RecommendedValue), nil
}

// phprcRule wants PHPRC to name a directory that holds an ini file
type phprcRule struct{}

func (phprcRule) Index() IssueIndex { return IssuePHPRC }

func (phprcRule) Check(r *Reconciler, _ *ini.Document) (*ConfigIssue, error) {
	current := ""
	key := MsgPHPRCNotSet

	if v, ok := r.app.GetEnv(EnvPHPRC); ok && v.Value != "" {
		current = v.Value
		if r.iniFileIn(expandEnv(r.env, v.Value)) != "" {
			return nil, nil
		}
		key = MsgPHPRCNotOk
	}

	return &ConfigIssue{
		SettingKey:        EnvPHPRC,
		CurrentValue:      current,
		RecommendedValue:  r.iniDir(),
		DescriptionKey:    key,
		RecommendationKey: MsgPHPRCRecommend,
		Index:             IssuePHPRC,
	}, nil
}

func (rule phprcRule) ApplyHost(r *Reconciler) (bool, error) {
	issue, err := rule.Check(r, nil)
	if err != nil || issue == nil {
		return false, err
	}
	if issue.RecommendedValue == "" {
		return false, &ArgumentError{Name: "ini path", Value: r.iniPath, Reason: "cannot derive directory"}
	}
	return r.app.SetEnv(EnvPHPRC, issue.RecommendedValue), nil
}

// monitorChangesRule wants the FastCGI application to restart when the ini
// file in use changes. Hosts without the feature are always compliant.
type monitorChangesRule struct{}

func (monitorChangesRule) Index() IssueIndex { return IssueMonitorChangesTo }

func (monitorChangesRule) Check(r *Reconciler, _ *ini.Document) (*ConfigIssue, error) {
	if !r.app.MonitorSupported {
		return nil, nil
	}

	current := r.app.MonitorChangesTo
	key := MsgMonitorChangesNotSet
	if current != "" {
		if util.SamePath(expandEnv(r.env, current), r.iniPath) {
			return nil, nil
		}
		key = MsgMonitorChangesNotOk
	}

	return &ConfigIssue{
		SettingKey:        "monitorChangesTo",
		CurrentValue:      current,
		RecommendedValue:  r.iniPath,
		DescriptionKey:    key,
		RecommendationKey: MsgMonitorChangesRecommend,
		Index:             IssueMonitorChangesTo,
	}, nil
}

func (rule monitorChangesRule) ApplyHost(r *Reconciler) (bool, error) {
	issue, err := rule.Check(r, nil)
	if err != nil || issue == nil {
		return false, err
	}
	r.app.MonitorChangesTo = issue.RecommendedValue
	return true, nil
}
