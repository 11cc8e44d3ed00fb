package phpconfig

import (
	"fmt"
	"strconv"
	"strings"
)

// IssueIndex identifies the rule that produced an issue. It is the handle
// used to select issues for ApplyRecommended.
type IssueIndex int

const (
	IssueDefaultDocument IssueIndex = iota
	IssueResourceType
	IssuePHPMaxRequests
	IssuePHPRC
	IssueMonitorChangesTo
	IssueExtensionDir
	IssueLogErrors
	IssueErrorLog
	IssueSessionPath
	IssueUploadDir
	IssueCgiForceRedirect
	IssueCgiPathInfo
	IssueFastCgiImpersonate
	IssueDateTimeZone
)

var issueNames = []string{
	"DefaultDocument",
	"ResourceType",
	"PHPMaxRequests",
	"PHPRC",
	"MonitorChangesTo",
	"ExtensionDir",
	"LogErrors",
	"ErrorLog",
	"SessionPath",
	"UploadDir",
	"CgiForceRedirect",
	"CgiPathInfo",
	"FastCgiImpersonate",
	"DateTimeZone",
}

func (i IssueIndex) String() string {
	if i < 0 || int(i) >= len(issueNames) {
		return "IssueIndex(" + strconv.Itoa(int(i)) + ")"
	}
	return issueNames[i]
}

// ParseIssueIndex accepts an issue name, ignoring case, or its number
func ParseIssueIndex(s string) (IssueIndex, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n >= len(issueNames) {
			return 0, &ArgumentError{Name: "issue", Value: s, Reason: "out of range"}
		}
		return IssueIndex(n), nil
	}

	for i, name := range issueNames {
		if strings.EqualFold(name, s) {
			return IssueIndex(i), nil
		}
	}
	return 0, &ArgumentError{Name: "issue", Value: s, Reason: "unknown issue"}
}

// ConfigIssue is a deviation from the recommended configuration
type ConfigIssue struct {
	SettingKey        string     `json:"setting_key"`
	CurrentValue      string     `json:"current_value"`
	RecommendedValue  string     `json:"recommended_value"`
	DescriptionKey    string     `json:"description_key"`
	RecommendationKey string     `json:"recommendation_key"`
	Index             IssueIndex `json:"index"`
}

// Description renders the description key
func (i ConfigIssue) Description() string {
	return Message(i.DescriptionKey)
}

// Recommendation renders the recommendation key
func (i ConfigIssue) Recommendation() string {
	return Message(i.RecommendationKey)
}

// Message keys. Rules with a "not set" and a "wrong value" case use two
// description keys under one index.
const (
	MsgDefaultDocumentMissing      = "ConfigIssueDefaultDocumentMissing"
	MsgDefaultDocumentNotFirst     = "ConfigIssueDefaultDocumentNotFirst"
	MsgDefaultDocumentRecommend    = "ConfigIssueDefaultDocumentRecommend"
	MsgResourceTypeIncorrect       = "ConfigIssueResourceTypeIncorrect"
	MsgResourceTypeRecommend       = "ConfigIssueResourceTypeRecommend"
	MsgPHPMaxRequestsNotSet        = "ConfigIssuePHPMaxRequestsNotSet"
	MsgPHPMaxRequestsTooLow        = "ConfigIssuePHPMaxRequestsTooLow"
	MsgPHPMaxRequestsRecommend     = "ConfigIssuePHPMaxRequestsRecommend"
	MsgPHPRCNotSet                 = "ConfigIssuePHPRCNotSet"
	MsgPHPRCNotOk                  = "ConfigIssuePHPRCNotOk"
	MsgPHPRCRecommend              = "ConfigIssuePHPRCRecommend"
	MsgMonitorChangesNotSet        = "ConfigIssueMonitorChangesNotSet"
	MsgMonitorChangesNotOk         = "ConfigIssueMonitorChangesNotOk"
	MsgMonitorChangesRecommend     = "ConfigIssueMonitorChangesRecommend"
	MsgExtensionDirNotSet          = "ConfigIssueExtensionDirNotSet"
	MsgExtensionDirNotOk           = "ConfigIssueExtensionDirNotOk"
	MsgExtensionDirRecommend       = "ConfigIssueExtensionDirRecommend"
	MsgLogErrorsNotSet             = "ConfigIssueLogErrorsNotSet"
	MsgLogErrorsNotOk              = "ConfigIssueLogErrorsNotOk"
	MsgLogErrorsRecommend          = "ConfigIssueLogErrorsRecommend"
	MsgErrorLogNotSet              = "ConfigIssueErrorLogNotSet"
	MsgErrorLogNotOk               = "ConfigIssueErrorLogNotOk"
	MsgErrorLogRecommend           = "ConfigIssueErrorLogRecommend"
	MsgSessionPathNotSet           = "ConfigIssueSessionPathNotSet"
	MsgSessionPathNotOk            = "ConfigIssueSessionPathNotOk"
	MsgSessionPathRecommend        = "ConfigIssueSessionPathRecommend"
	MsgUploadDirNotSet             = "ConfigIssueUploadDirNotSet"
	MsgUploadDirNotOk              = "ConfigIssueUploadDirNotOk"
	MsgUploadDirRecommend          = "ConfigIssueUploadDirRecommend"
	MsgCgiForceRedirectNotSet      = "ConfigIssueCgiForceRedirectNotSet"
	MsgCgiForceRedirectNotOk       = "ConfigIssueCgiForceRedirectNotOk"
	MsgCgiForceRedirectRecommend   = "ConfigIssueCgiForceRedirectRecommend"
	MsgCgiPathInfoNotSet           = "ConfigIssueCgiPathInfoNotSet"
	MsgCgiPathInfoNotOk            = "ConfigIssueCgiPathInfoNotOk"
	MsgCgiPathInfoRecommend        = "ConfigIssueCgiPathInfoRecommend"
	MsgFastCgiImpersonateNotSet    = "ConfigIssueFastCgiImpersonateNotSet"
	MsgFastCgiImpersonateNotOk     = "ConfigIssueFastCgiImpersonateNotOk"
	MsgFastCgiImpersonateRecommend = "ConfigIssueFastCgiImpersonateRecommend"
	MsgDateTimeZoneNotSet          = "ConfigIssueDateTimeZoneNotSet"
	MsgDateTimeZoneRecommend       = "ConfigIssueDateTimeZoneRecommend"
)

var messages = map[string]string{
	MsgDefaultDocumentMissing:      "index.php is not in the list of default documents",
	MsgDefaultDocumentNotFirst:     "index.php is not the first default document",
	MsgDefaultDocumentRecommend:    "Add index.php as the first default document",
	MsgResourceTypeIncorrect:       "The PHP handler only serves existing files",
	MsgResourceTypeRecommend:       "Set the handler resource type to either file or folder",
	MsgPHPMaxRequestsNotSet:        "PHP_FCGI_MAX_REQUESTS is not set for the FastCGI application",
	MsgPHPMaxRequestsTooLow:        "PHP_FCGI_MAX_REQUESTS is lower than the FastCGI instance request limit",
	MsgPHPMaxRequestsRecommend:     "Set PHP_FCGI_MAX_REQUESTS to the instance request limit",
	MsgPHPRCNotSet:                 "PHPRC is not set for the FastCGI application",
	MsgPHPRCNotOk:                  "PHPRC does not point to a directory with a php.ini file",
	MsgPHPRCRecommend:              "Set PHPRC to the directory of the php.ini file",
	MsgMonitorChangesNotSet:        "The FastCGI application does not monitor changes to php.ini",
	MsgMonitorChangesNotOk:         "The FastCGI application monitors a different file than php.ini",
	MsgMonitorChangesRecommend:     "Monitor changes to the php.ini file in use",
	MsgExtensionDirNotSet:          "extension_dir is not set",
	MsgExtensionDirNotOk:           "extension_dir does not point to the ext directory of this PHP installation",
	MsgExtensionDirRecommend:       "Set extension_dir to the ext directory of this PHP installation",
	MsgLogErrorsNotSet:             "log_errors is not set",
	MsgLogErrorsNotOk:              "Errors are not logged",
	MsgLogErrorsRecommend:          "Set log_errors to On",
	MsgErrorLogNotSet:              "error_log is not set",
	MsgErrorLogNotOk:               "error_log does not point to a file in an existing directory",
	MsgErrorLogRecommend:           "Set error_log to a file in an existing directory",
	MsgSessionPathNotSet:           "session.save_path is not set",
	MsgSessionPathNotOk:            "session.save_path does not point to an existing directory",
	MsgSessionPathRecommend:        "Set session.save_path to an existing directory",
	MsgUploadDirNotSet:             "upload_tmp_dir is not set",
	MsgUploadDirNotOk:              "upload_tmp_dir does not point to an existing directory",
	MsgUploadDirRecommend:          "Set upload_tmp_dir to an existing directory",
	MsgCgiForceRedirectNotSet:      "cgi.force_redirect is not set",
	MsgCgiForceRedirectNotOk:       "cgi.force_redirect is enabled",
	MsgCgiForceRedirectRecommend:   "Set cgi.force_redirect to 0",
	MsgCgiPathInfoNotSet:           "cgi.fix_pathinfo is not set",
	MsgCgiPathInfoNotOk:            "cgi.fix_pathinfo is disabled",
	MsgCgiPathInfoRecommend:        "Set cgi.fix_pathinfo to 1",
	MsgFastCgiImpersonateNotSet:    "fastcgi.impersonate is not set",
	MsgFastCgiImpersonateNotOk:     "fastcgi.impersonate is disabled",
	MsgFastCgiImpersonateRecommend: "Set fastcgi.impersonate to 1",
	MsgDateTimeZoneNotSet:          "date.timezone is not set",
	MsgDateTimeZoneRecommend:       "Set date.timezone to the time zone of this server",
}

// Message renders a message key as English text. Unknown keys are returned
// as is.
func Message(key string) string {
	if msg, ok := messages[key]; ok {
		return msg
	}
	return key
}

func (i ConfigIssue) String() string {
	return fmt.Sprintf("%s: %q -> %q", i.SettingKey, i.CurrentValue, i.RecommendedValue)
}
