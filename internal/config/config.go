package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-Amlich/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go Âm Lịch"
	AppID             = "com.github.tartampluch.go-amlich"
	KeyringService    = "com.github.tartampluch.go-amlich"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	SettingsFileName  = "amlich.yaml"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	CmdRoot       = "amlich"
	CmdDay        = "day"
	CmdAnalyze    = "analyze"
	CmdFind       = "find"
	CmdChart      = "chart"
	CmdCompat     = "compat"
	CmdContacts   = "contacts"
	CmdServe      = "serve"
	CmdVersion    = "version"
	CmdActivities = "activities"
	CmdInit       = "init"

	FlagDebug      = "debug"
	FlagConfig     = "config"
	FlagLang       = "lang"
	FlagDate       = "date"
	FlagFrom       = "from"
	FlagTo         = "to"
	FlagActivities = "activities"
	FlagBirthYear  = "birth-year"
	FlagMinScore   = "min-score"
	FlagMaxResults = "max-results"
	FlagCalendar   = "calendar"
	FlagLeap       = "leap"
	FlagHour       = "hour"
	FlagGender     = "gender"
	FlagYear       = "year"
	FlagPartner    = "partner"
	FlagVCard      = "vcard"
	FlagURL        = "url"
	FlagUser       = "user"
	FlagPort       = "port"
	FlagForce      = "force"

	FlagDescDebug      = "Enable debug logging"
	FlagDescConfig     = "Path to a YAML settings file"
	FlagDescLang       = "Language of rationale and narrative texts (vi, en)"
	FlagDescDate       = "Gregorian date (YYYY-MM-DD); defaults to today"
	FlagDescFrom       = "First day of the search range (YYYY-MM-DD)"
	FlagDescTo         = "Last day of the search range (YYYY-MM-DD)"
	FlagDescActivities = "Comma separated activity ids"
	FlagDescBirthYear  = "Birth year used for age-conflict checks (0 disables)"
	FlagDescMinScore   = "Minimum score for a day to qualify (0-100)"
	FlagDescMaxResults = "Maximum number of days returned"
	FlagDescCalendar   = "Calendar of the birth date: solar or lunar"
	FlagDescLeap       = "Birth month is a leap month (lunar calendar only)"
	FlagDescHour       = "Birth hour block index 0 (Tý) .. 11 (Hợi)"
	FlagDescGender     = "Gender: male or female"
	FlagDescYear       = "Year for the yearly fortune reading (0 skips it)"
	FlagDescForce      = "Overwrite an existing settings file"
	FlagDescPartner    = "Partner birth as DATE,HOUR,GENDER for compatibility"
	FlagDescVCard      = "Path to a local .vcf file"
	FlagDescURL        = "CardDAV/WebDAV URL of the address book"
	FlagDescUser       = "User name for the address book (password read from the OS keyring)"
	FlagDescPort       = "HTTP port of the local server"

	MsgVersionOutput = "%s version %s (commit %s, built %s, %s/%s)\n"

	// Table output (text/tabwriter).
	TabMinWidth    = 0
	TabWidth       = 4
	TabPadding     = 2
	TabPadChar     = ' '
	FormatField    = "%s:\t%s\n"
	FormatSection  = "\n%s\n"
	FormatScore    = "%d (%s)"
	FormatTriple   = "%s / %s / %s"
	FormatAdvice   = "  %s\t%d\t%s\t%s\n"
	FormatActivity = "  %s\t%s\t%d\n"
	FormatPalace   = "%d\t%s\t%s\t%s\t%d\n"
	FormatElements = "%s / %s (%s)"
	FormatYearPair = "%d %s"
	ColPosition    = "#"
	EmptyCell      = "-"

	ShortRoot       = "Vietnamese lunar calendar, good-day finder and Tử Vi chart"
	ShortDay        = "Rate a day for a set of activities"
	ShortAnalyze    = "Explain a day: recommended and avoided activities"
	ShortFind       = "Find good days in a date range"
	ShortChart      = "Build a Tử Vi birth chart"
	ShortCompat     = "Compare two birth charts"
	ShortContacts   = "List address-book birthdays with their Can Chi and conflicts"
	ShortServe      = "Serve the JSON API and the good-day iCalendar feed"
	ShortVersion    = "Print the version"
	ShortActivities = "List the activity catalog"
	ShortInit       = "Write the effective settings to the settings file"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	SourceModeWeb   = "web"
	SourceModeLocal = "local"

	DefaultPort         = "18081"
	DefaultLanguage     = "vi"
	DefaultTimeZone     = 7.0 // Vietnam reckons lunar days at UTC+7
	DefaultLeapYear     = 2000
	DefaultMinScore     = 60
	DefaultMaxResults   = 30
	DefaultMaxSpanDays  = 3660
	DefaultWorkers      = 4
	DefaultFeedWindow   = 90
	DefaultRefreshMin   = 60
	DefaultDayScore     = 50
	UIDSalt             = "go-amlich-v1-"
	DisabledInterval    = 0
	DefaultFeedActivity = "wedding"

	// Score modifiers applied by the good-day engine.
	ModOfficerGood   = 15
	ModOfficerBad    = -15
	ModZodiacLucky   = 10
	ModZodiacUnlucky = -10
	ModLuckyStar     = 5
	ModUnluckyStar   = -8
	ModAgeConflict   = -20

	// Quality thresholds of an activity or day score.
	ThresholdExcellent = 85
	ThresholdGood      = 70
	ThresholdNeutral   = 50
	ThresholdBad       = 30

	// Partition thresholds of the day analysis.
	RecommendScore = 70
	AvoidScore     = 50

	// Natal chart rating constants.
	PalaceBaseRating     = 50
	BeneficFactor        = 5
	MaleficFactor        = 8
	PalaceExcellent      = 75
	PalaceGood           = 60
	PalaceNeutral        = 40
	YearBaseRating       = 50
	YearBeneficStep      = 10
	YearMaleficStep      = 15
	MonthStep            = 7
	MonthLucky           = 60
	MonthUnlucky         = 40
	CompatBase           = 50
	CompatGeneration     = 30
	CompatDestruction    = -20
	CompatSharedStar     = 10
	CompatExcellentFloor = 80
	CompatGoodFloor      = 60
	CompatNeutralFloor   = 40

	MinScore = 0
	MaxScore = 100
)

// ISO8601 Duration Components for Reminders
const (
	ISOPeriodPrefix   = "P"
	ISONegativePrefix = "-P"
	ISODay            = "D"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion   = "2.0"
	ICalProdid    = "-//Go Am Lich//Engine//VI"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"
	ICalDomain    = "goamlich"

	// iCal/vCard Fields
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropAction      = "ACTION"
	PropDescription = "DESCRIPTION"
	PropCategories  = "CATEGORIES"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	VCardBDAY = "BDAY"
	VCardFN   = "FN"
	VCardN    = "N"

	DefaultICalRefresh = 1 * time.Hour
)

// -----------------------------------------------------------------------------
// Data Formats, Limits & File Extensions
// -----------------------------------------------------------------------------

const (
	// Date layouts used for CLI/API input and vCard BDAY fields
	DateFormatFullDash  = "2006-01-02"
	DateFormatFullBasic = "20060102"
	DateFormatRFC3339   = time.RFC3339
	DateFormatFullT     = "2006-01-02T15:04:05Z"
	DateFormatNoYearD   = "--01-02"
	DateFormatNoYearB   = "--0102"
	DateSeparator       = "-"

	// Limits
	MinPort      = 1
	MaxPort      = 65535
	MinHourIndex = 0
	MaxHourIndex = 11
	MaxWorkers   = 64

	// UID Generation
	UIDHashLength   = 16
	FormatHashInput = "%s|%s|%s"
	FormatUID       = "%s@%s"

	// Text Formats
	ListSeparator  = ", "
	InputSeparator = ","

	// File Extensions
	ExtVCF = ".vcf"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 256 * 1024 * 1024 // 256MB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	AddrSeparator       = ":"

	RouteRoot     = "/"
	RouteCalendar = "/calendar.ics"
	RouteDay      = "/api/day"
	RouteAnalyze  = "/api/analyze"
	RouteGoodDays = "/api/good-days"
	RouteChart    = "/api/chart"
	RouteMetrics  = "/metrics"

	QueryDate       = "date"
	QueryFrom       = "from"
	QueryTo         = "to"
	QueryActivities = "activities"
	QueryBirthYear  = "birth_year"
	QueryMinScore   = "min_score"
	QueryMaxResults = "max_results"
	QueryCalendar   = "calendar"
	QueryLeap       = "leap"
	QueryHour       = "hour"
	QueryGender     = "gender"
	QueryYear       = "year"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderAccept          = "Accept"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeJSON            = "application/json; charset=utf-8"
	MimeNoSniff         = "nosniff"
	MimeVCardAccept     = "text/vcard, text/x-vcard;q=0.9, */*;q=0.1"
	MimeHTML            = "text/html"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Prometheus Metrics
// -----------------------------------------------------------------------------

const (
	MetricRequests       = "amlich_http_requests_total"
	MetricRequestsHelp   = "HTTP requests served, by route and status code"
	MetricFeedBuilds     = "amlich_feed_builds_total"
	MetricFeedBuildsHelp = "Good-day feed rebuilds, by outcome"
	MetricFeedDuration   = "amlich_feed_build_duration_seconds"
	MetricFeedDurHelp    = "Time spent rebuilding the good-day feed"
	MetricFeedDays       = "amlich_feed_days"
	MetricFeedDaysHelp   = "Number of good days in the current feed"
	LabelRoute           = "route"
	LabelCode            = "code"
	LabelOutcome         = "outcome"
	OutcomeSuccess       = "success"
	OutcomeError         = "error"
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrPrecondition     = "invalid input"
	ErrEngineInvariant  = "engine invariant broken"
	ErrUnknownActivity  = "unknown activity"
	ErrEmptyActivity    = "empty activity id"
	ErrDateZero         = "date is missing"
	ErrDateParse        = "unable to parse date"
	ErrRangeInverted    = "end date is before start date"
	ErrRangeTooLong     = "date range exceeds the maximum span"
	ErrMaxResults       = "max results must be positive"
	ErrMinScore         = "min score must be between 0 and 100"
	ErrBirthYear        = "birth year must be positive"
	ErrHourIndex        = "hour index must be between 0 and 11"
	ErrGender           = "gender must be male or female"
	ErrCalendarType     = "calendar must be solar or lunar"
	ErrLunarRange       = "date outside the supported lunar calendar range"
	ErrLunarLeap        = "lunar year has no such leap month"
	ErrLunarInvalid     = "invalid lunar date"
	ErrLunarConvert     = "lunar conversion failed"
	ErrLocalPathEmpty   = "configuration error: local path is empty"
	ErrWebURLEmpty      = "configuration error: web URL is empty"
	ErrFetcherMissing   = "internal error: network fetcher is not initialized"
	ErrModeUnsupport    = "configuration error: unsupported source mode"
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrPortRequired     = "server port is required"
	ErrPortNumber       = "server port must be a number"
	ErrPortRange        = "server port must be between 1 and 65535"
	ErrLanguage         = "unsupported language"
	ErrTimeZone         = "time zone offset must be between -12 and 14 hours"
	ErrWorkers          = "workers must be between 1 and 64"
	ErrFeedWindow       = "feed window must be positive"
	ErrSettingsRead     = "failed to read settings file"
	ErrSettingsParse    = "failed to parse settings file"
	ErrSettingsExist    = "settings file already exists"
	ErrSettingsWrite    = "failed to write settings file"
	ErrInvalidURL       = "invalid URL structure"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrVCardParse       = "failed to parse vCard stream"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrCreateDir        = "could not create app cache dir"
	ErrAppFailed        = "application failed unexpectedly"
	ErrWriteResp        = "failed to write response body"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrPartnerFormat    = "partner must be DATE,HOUR,GENDER"
	ErrRequestBuild     = "failed to create request"
	ErrNetwork          = "network error during fetch"
	ErrHTTPStatus       = "server returned unexpected status"
	ErrContentType      = "server returned a web page instead of vCards"
	ErrBodyTooLarge     = "address book exceeds size limit"
	ErrMaxBytes         = "address book size limit must be between 1 byte and 256MB"
	ErrNoActivitiesFeed = "feed needs at least one activity"
	ErrDateInvalid      = "invalid calendar date"
	ErrLeapSolar        = "leap month applies to lunar dates only"
	ErrFortuneYear      = "year is before the birth year"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Calendar initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgInternalErr  = "Internal Server Error"
)

// -----------------------------------------------------------------------------
// Fallbacks, Formats & Log Messages
// -----------------------------------------------------------------------------

const (
	FallbackName = "Unknown"

	// StubVCalendar is the minimal valid iCalendar object used when no events are found.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	// FormatInterpretation renders a palace reading: name, domain, star list.
	FormatInterpretation = "%s (%s): %s"
	NoStars              = "vô chính diệu"

	MsgSearchDone     = "Good-day search finished"
	MsgFeedBuilt      = "Good-day feed generated"
	MsgFeedFailed     = "Good-day feed generation failed"
	MsgWorkerStart    = "Background worker started"
	MsgWorkerStop     = "Worker stopping due to context cancellation"
	MsgAppStarting    = "Starting application"
	MsgServerListen   = "HTTP server listening"
	MsgServerStop     = "Shutting down HTTP server..."
	MsgCacheUpdated   = "Calendar cache updated"
	MsgRequestFailed  = "API request rejected"
	MsgSkippedCard    = "Skipping malformed vCard"
	MsgSkippedDate    = "Skipping invalid date format"
	MsgContactsLoaded = "Contacts loaded"
	MsgLocaleSkip     = "Skipping non-locale file"
	MsgLocaleBadName  = "Skipping malformed locale filename"
	MsgLocaleLoaded   = "Locale loaded successfully"
	MsgTransMissing   = "Missing translation key"
	MsgSettingsLoaded = "Settings loaded"
	MsgSettingsSaved  = "Settings written to %s\n"
	MsgPassFail       = "Password retrieval failed (might be empty)"
	MsgDownloadStart  = "Initiating vCard download"
	MsgDownloading    = "vCards downloading"
	MsgBadStatus      = "Server returned error status"
	MsgBadContent     = "Server returned HTML, check the address book URL"
	MsgLogWarning     = "Warning: %s at %s: %v\n"
)

// -----------------------------------------------------------------------------
// Birth Input Vocabulary
// -----------------------------------------------------------------------------

const (
	GenderMale    = "male"
	GenderFemale  = "female"
	CalendarSolar = "solar"
	CalendarLunar = "lunar"

	// Âm Dương polarity labels of a chart.
	PolarityYang = "Dương"
	PolarityYin  = "Âm"
	LabelMale    = "Nam"
	LabelFemale  = "Nữ"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyInterval  = "interval"
	LogKeyRoute     = "route"
	LogKeyUser      = "user"
	LogKeyTotal     = "total_cards"
	LogKeyFound     = "birthdays_found"
	LogKeyDays      = "days_scanned"
	LogKeyKept      = "days_kept"
	LogKeyFrom      = "from"
	LogKeyWorkers   = "workers"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyValue     = "value"
	LogKeyStats     = "stats"
	LogKeyCount     = "count"
	LogKeyDuration  = "duration_ms"
	LogKeyPath      = "path"
	LogKeyLength    = "content_length"
	LogKeyMaxBytes  = "max_bytes"
	LogKeyMediaType = "media_type"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyCommit  = "commit"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompEngine   = "engine"
	CompFeed     = "feed"
	CompServer   = "server"
	CompFetcher  = "fetcher"
	CompContacts = "contacts"
	CompWorker   = "worker"
	CompMain     = "main"
	CompI18n     = "i18n"
	CompSettings = "settings"
)

// -----------------------------------------------------------------------------
// Translation Keys (go-i18n)
// -----------------------------------------------------------------------------

const (
	// Activity scoring rationale
	TKeyReasonOfficerGood   = "reason_officer_good"
	TKeyReasonOfficerBad    = "reason_officer_bad"
	TKeyReasonZodiacLucky   = "reason_zodiac_lucky"
	TKeyReasonZodiacUnlucky = "reason_zodiac_unlucky"
	TKeyReasonLuckyStar     = "reason_lucky_star"
	TKeyReasonUnluckyStar   = "reason_unlucky_star"
	TKeyReasonAgeConflict   = "reason_age_conflict"
	TKeyReasonNone          = "reason_none"

	// Day analysis narratives
	TKeyNarrStemBranch    = "narrative_stem_branch"
	TKeyNarrStarsGood     = "narrative_stars_good"
	TKeyNarrStarsMixed    = "narrative_stars_mixed"
	TKeyNarrStarsBad      = "narrative_stars_bad"
	TKeyNarrZodiacLucky   = "narrative_zodiac_lucky"
	TKeyNarrZodiacUnlucky = "narrative_zodiac_unlucky"

	// Overall advice, one per quality bucket
	TKeyAdviceExcellent = "advice_excellent"
	TKeyAdviceGood      = "advice_good"
	TKeyAdviceNeutral   = "advice_neutral"
	TKeyAdviceBad       = "advice_bad"
	TKeyAdviceTerrible  = "advice_terrible"

	// Activity categories
	TKeyCategoryPrefix = "category_"
	TKeyActivityPrefix = "activity_"

	// iCalendar feed
	TKeyFeedName        = "feed_name"
	TKeyFeedSummary     = "feed_summary"
	TKeyFeedDescription = "feed_description"

	// CLI table headers
	TKeyColDate     = "col_date"
	TKeyColLunar    = "col_lunar"
	TKeyColCanChi   = "col_can_chi"
	TKeyColScore    = "col_score"
	TKeyColQuality  = "col_quality"
	TKeyColActivity = "col_activity"
	TKeyColReasons  = "col_reasons"
	TKeyColName     = "col_name"
	TKeyColBirth    = "col_birth"
	TKeyColNapAm    = "col_nap_am"
	TKeyColConflict = "col_conflict"
	TKeyColPalace   = "col_palace"
	TKeyColStars    = "col_stars"
	TKeyColRating   = "col_rating"

	TKeyLblRecommended = "lbl_recommended"
	TKeyLblAvoid       = "lbl_avoid"
	TKeyLblLuckyHours  = "lbl_lucky_hours"
	TKeyLblDestiny     = "lbl_destiny"
	TKeyLblLifePalace  = "lbl_life_palace"
	TKeyLblLeapMonth   = "lbl_leap_month"
	TKeyLblFortune     = "lbl_fortune"
	TKeyLblLuckyMonths = "lbl_lucky_months"
	TKeyLblBadMonths   = "lbl_bad_months"
	TKeyLblCompat      = "lbl_compat"
	TKeyLblYes         = "lbl_yes"
	TKeyLblNo          = "lbl_no"
)
