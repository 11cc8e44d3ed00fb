package phpconfig

import (
	"strings"

	"github.com/thesabbir/phpmanager/pkg/ini"
	"github.com/thesabbir/phpmanager/pkg/util"
)

// Sections new settings are written to
const (
	SectionPHP     = "PHP"
	SectionSession = "Session"
	SectionDate    = "Date"
)

// settingRule checks a single ini setting. An empty value counts as not
// set; valid is only asked about non-empty, unquoted values.
type settingRule struct {
	index     IssueIndex
	name      string
	section   string
	notSet    string
	notOk     string
	recommend string

	valid       func(r *Reconciler, value string) bool
	recommended func(r *Reconciler) string
}

func (s *settingRule) Index() IssueIndex { return s.index }

func (s *settingRule) Check(r *Reconciler, doc *ini.Document) (*ConfigIssue, error) {
	current := ""
	if setting, ok := doc.GetSetting(s.name); ok {
		current = setting.Value
	}

	value := util.Unquote(current)
	key := s.notSet
	if value != "" {
		if s.valid(r, value) {
			return nil, nil
		}
		key = s.notOk
	}

	return &ConfigIssue{
		SettingKey:        s.name,
		CurrentValue:      current,
		RecommendedValue:  s.recommended(r),
		DescriptionKey:    key,
		RecommendationKey: s.recommend,
		Index:             s.index,
	}, nil
}

func (s *settingRule) Recommend(r *Reconciler, doc *ini.Document) *ini.Setting {
	issue, _ := s.Check(r, doc)
	if issue == nil {
		return nil
	}
	return ini.NewSetting(s.name, issue.RecommendedValue, s.section)
}

func iniRules() []*settingRule {
	return []*settingRule{
		{
			index: IssueExtensionDir, name: "extension_dir", section: SectionPHP,
			notSet: MsgExtensionDirNotSet, notOk: MsgExtensionDirNotOk, recommend: MsgExtensionDirRecommend,
			valid: func(r *Reconciler, value string) bool {
				return util.SamePath(expandEnv(r.env, value), r.extensionDir())
			},
			recommended: func(r *Reconciler) string { return r.extensionDir() },
		},
		{
			index: IssueLogErrors, name: "log_errors", section: SectionPHP,
			notSet: MsgLogErrorsNotSet, notOk: MsgLogErrorsNotOk, recommend: MsgLogErrorsRecommend,
			valid:       equalsFold("On"),
			recommended: constant("On"),
		},
		{
			index: IssueErrorLog, name: "error_log", section: SectionPHP,
			notSet: MsgErrorLogNotSet, notOk: MsgErrorLogNotOk, recommend: MsgErrorLogRecommend,
			valid: func(r *Reconciler, value string) bool {
				path := expandEnv(r.env, value)
				if !util.IsAbsPath(path) {
					return false
				}
				dir, err := util.DirOf(path)
				return err == nil && r.env.DirExists(dir)
			},
			recommended: func(r *Reconciler) string {
				return util.JoinPath(r.env.TempDir(), r.handler.Name+"_errors.log")
			},
		},
		{
			index: IssueSessionPath, name: "session.save_path", section: SectionSession,
			notSet: MsgSessionPathNotSet, notOk: MsgSessionPathNotOk, recommend: MsgSessionPathRecommend,
			valid:       existingDir(true),
			recommended: tempDir,
		},
		{
			index: IssueUploadDir, name: "upload_tmp_dir", section: SectionPHP,
			notSet: MsgUploadDirNotSet, notOk: MsgUploadDirNotOk, recommend: MsgUploadDirRecommend,
			valid:       existingDir(false),
			recommended: tempDir,
		},
		{
			index: IssueCgiForceRedirect, name: "cgi.force_redirect", section: SectionPHP,
			notSet: MsgCgiForceRedirectNotSet, notOk: MsgCgiForceRedirectNotOk, recommend: MsgCgiForceRedirectRecommend,
			valid:       equals("0"),
			recommended: constant("0"),
		},
		{
			index: IssueCgiPathInfo, name: "cgi.fix_pathinfo", section: SectionPHP,
			notSet: MsgCgiPathInfoNotSet, notOk: MsgCgiPathInfoNotOk, recommend: MsgCgiPathInfoRecommend,
			valid:       equals("1"),
			recommended: constant("1"),
		},
		{
			index: IssueFastCgiImpersonate, name: "fastcgi.impersonate", section: SectionPHP,
			notSet: MsgFastCgiImpersonateNotSet, notOk: MsgFastCgiImpersonateNotOk, recommend: MsgFastCgiImpersonateRecommend,
			valid:       equals("1"),
			recommended: constant("1"),
		},
		{
			// Any time zone is accepted once one is set
			index: IssueDateTimeZone, name: "date.timezone", section: SectionDate,
			notSet: MsgDateTimeZoneNotSet, notOk: MsgDateTimeZoneNotSet, recommend: MsgDateTimeZoneRecommend,
			valid:       func(*Reconciler, string) bool { return true },
			recommended: suggestedTimezone,
		},
	}
}

func equals(want string) func(*Reconciler, string) bool {
	return func(_ *Reconciler, value string) bool {
		return value == want
	}
}

func equalsFold(want string) func(*Reconciler, string) bool {
	return func(_ *Reconciler, value string) bool {
		return strings.EqualFold(value, want)
	}
}

func constant(value string) func(*Reconciler) string {
	return func(*Reconciler) string {
		return value
	}
}

// existingDir accepts absolute paths of existing directories. Session paths
// may carry "N;MODE;" prefixes before the directory.
func existingDir(sessionPrefix bool) func(*Reconciler, string) bool {
	return func(r *Reconciler, value string) bool {
		if sessionPrefix {
			if idx := strings.LastIndex(value, ";"); idx >= 0 {
				value = value[idx+1:]
			}
		}
		path := expandEnv(r.env, value)
		return util.IsAbsPath(path) && r.env.DirExists(path)
	}
}

func suggestedTimezone(r *Reconciler) string {
	return SuggestTimezone(r.env.Now())
}

func tempDir(r *Reconciler) string {
	return util.EnsureTrailingSeparator(r.env.TempDir())
}
