package portal

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	apperrors "github.com/gyanbazaar/ignou-study-bot/internal/errors"
	"github.com/gyanbazaar/ignou-study-bot/internal/logger"
)

// MetricsRecorder receives engine instrumentation. Implementations must be
// safe for concurrent use.
type MetricsRecorder interface {
	QueryCompleted(kind, outcome string)
	QueryDuration(kind string, seconds float64)
	AttemptFinished(variant, result string)
	ExtractorHit(strategy string)
}

type nopMetrics struct{}

func (nopMetrics) QueryCompleted(string, string)  {}
func (nopMetrics) QueryDuration(string, float64)  {}
func (nopMetrics) AttemptFinished(string, string) {}
func (nopMetrics) ExtractorHit(string)            {}

// Options configures an Engine.
type Options struct {
	AssignmentURLs  []string // Assignment-status endpoints, tried in order
	GradeCardURLs   []string // Grade-card endpoints, tried in order
	Timeout         time.Duration
	Rules           []PhraseRule
	Profile         HeaderProfile
	MaxMessageRunes int
	Logger          *logger.Logger
	Metrics         MetricsRecorder
}

// Engine runs the full query pipeline: transport variants in order, soft
// classification, table extraction with pattern fallback, record validation,
// and formatting. Safe for concurrent use; each call is independent.
type Engine struct {
	client          *Client
	assignmentURLs  []string
	gradeCardURLs   []string
	rules           []PhraseRule
	profile         HeaderProfile
	maxMessageRunes int
	log             *logger.Logger
	metrics         MetricsRecorder
}

// NewEngine creates an engine. Zero-value options fall back to the built-in
// endpoints, phrase rules, header profile, and message size.
func NewEngine(opts Options) *Engine {
	if len(opts.AssignmentURLs) == 0 {
		opts.AssignmentURLs = []string{"https://isms.ignou.ac.in/changeadmdata/StatusAssignment.asp"}
	}
	if len(opts.GradeCardURLs) == 0 {
		opts.GradeCardURLs = []string{
			"https://gradecard.ignou.ac.in/gradecard/",
			"https://gradecard.ignou.ac.in/gradecardM/",
		}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if len(opts.Rules) == 0 {
		opts.Rules = DefaultPhraseRules()
	}
	if opts.Profile == (HeaderProfile{}) {
		opts.Profile = DefaultHeaderProfile()
	}
	if opts.MaxMessageRunes <= 0 {
		opts.MaxMessageRunes = DefaultMaxMessageRunes
	}
	if opts.Logger == nil {
		opts.Logger = logger.New("info")
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}

	return &Engine{
		client:          NewClient(opts.Timeout),
		assignmentURLs:  opts.AssignmentURLs,
		gradeCardURLs:   opts.GradeCardURLs,
		rules:           opts.Rules,
		profile:         opts.Profile,
		maxMessageRunes: opts.MaxMessageRunes,
		log:             opts.Logger.WithModule("portal"),
		metrics:         opts.Metrics,
	}
}

// Query executes one portal query end to end. Variants are tried strictly
// in order, each exactly once; there is no backoff and no retry. Definitive
// classifications (invalid enrollment, invalid programme) stop the variant
// loop immediately; transport failures, server-error pages, and empty
// extractions advance to the next variant.
func (e *Engine) Query(ctx context.Context, req QueryRequest) (*Result, error) {
	start := time.Now()
	res, err := e.query(ctx, req)
	e.metrics.QueryDuration(string(req.Kind), time.Since(start).Seconds())
	e.metrics.QueryCompleted(string(req.Kind), outcomeLabel(err))
	return res, err
}

func (e *Engine) query(ctx context.Context, req QueryRequest) (*Result, error) {
	form := url.Values{}
	form.Set("eno", req.Enrollment)
	form.Set("prog", req.Program)
	form.Set("submit", "Submit")

	log := e.log.WithField("kind", string(req.Kind)).WithField("enrollment", req.Enrollment)

	sawServerError := false
	sawEmptyPage := false

	for i, v := range e.variantsFor(req.Kind) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		label := variantLabel(i, v)

		html, err := e.client.fetch(ctx, v, form)
		if err != nil {
			e.metrics.AttemptFinished(label, attemptResult(err))
			log.WithError(err).Warnf("portal attempt %s failed", label)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		e.metrics.AttemptFinished(label, "success")

		switch outcome := Classify(html, e.rules); outcome {
		case OutcomeInvalidEnrollment:
			return nil, apperrors.ErrInvalidEnrollment
		case OutcomeInvalidProgram:
			return nil, apperrors.ErrInvalidProgram
		case OutcomeNoRecords:
			sawEmptyPage = true
			continue
		case OutcomeServerError:
			sawServerError = true
			log.Warnf("portal attempt %s returned a server error page", label)
			continue
		}

		res, err := e.extract(req, html)
		if err != nil {
			if errors.Is(err, apperrors.ErrNoRecords) {
				sawEmptyPage = true
				continue
			}
			return nil, err
		}

		log.Infof("portal query succeeded on attempt %s", label)
		return res, nil
	}

	switch {
	case sawEmptyPage:
		return nil, apperrors.ErrNoRecords
	case sawServerError:
		return nil, apperrors.ErrPortalServerError
	default:
		return nil, apperrors.ErrPortalUnreachable
	}
}

// variantsFor builds the ordered attempt list for a kind: for each endpoint
// a POST variant first, then a GET with the same parameters. Both grade-card
// kinds share the grade-card endpoints since the marks tables ride on the
// same page.
func (e *Engine) variantsFor(kind QueryKind) []variant {
	urls := e.assignmentURLs
	if kind == KindGradeCard || kind == KindAssignmentMarks {
		urls = e.gradeCardURLs
	}

	variants := make([]variant, 0, len(urls)*2)
	for _, u := range urls {
		variants = append(variants,
			variant{method: http.MethodPost, baseURL: u, profile: e.profile},
			variant{method: http.MethodGet, baseURL: u, profile: e.profile},
		)
	}
	return variants
}

// extract runs the extraction chain for one successful page and formats the
// result. Returns ErrNoRecords when no strategy yields validated records.
func (e *Engine) extract(req QueryRequest, html string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		doc = nil
	}

	res := &Result{Kind: req.Kind}

	switch req.Kind {
	case KindAssignmentStatus:
		var records []AssignmentRecord
		strategy := "none"
		if doc != nil {
			if records = FilterRecords(extractAssignments(doc)); len(records) > 0 {
				strategy = "table"
			}
		}
		if len(records) == 0 {
			if records = FilterRecords(extractByCourseCodeScan(html)); len(records) > 0 {
				strategy = "pattern"
			}
		}
		e.metrics.ExtractorHit(strategy)
		if len(records) == 0 {
			return nil, apperrors.ErrNoRecords
		}
		res.Assignments = DedupeRecords(records)
		res.Report = FormatAssignmentStatus(req, res.Assignments)

	case KindGradeCard:
		if doc == nil {
			e.metrics.ExtractorHit("none")
			return nil, apperrors.ErrNoRecords
		}
		gc := extractGradeCard(doc)
		if len(gc.Semesters) == 0 {
			e.metrics.ExtractorHit("none")
			return nil, apperrors.ErrNoRecords
		}
		e.metrics.ExtractorHit("table")
		res.GradeCard = gc
		res.Report = FormatGradeCard(req, gc)

	case KindAssignmentMarks:
		if doc == nil {
			e.metrics.ExtractorHit("none")
			return nil, apperrors.ErrNoRecords
		}
		gc := extractGradeCard(doc)
		gc.Marks = extractAssignmentMarks(doc)
		if len(gc.Marks) == 0 {
			e.metrics.ExtractorHit("none")
			return nil, apperrors.ErrNoRecords
		}
		e.metrics.ExtractorHit("table")
		res.GradeCard = gc
		res.Report = FormatAssignmentMarks(req, gc.Marks)

	default:
		return nil, apperrors.NewValidationError("kind", "unknown query kind")
	}

	res.Chunks = SplitMessage(res.Report, e.maxMessageRunes)
	return res, nil
}

func variantLabel(i int, v variant) string {
	return strings.ToLower(v.method) + "-" + strconv.Itoa(i)
}

func attemptResult(err error) string {
	var perr *apperrors.PortalError
	if errors.As(err, &perr) && perr.StatusCode > 0 {
		return "http_error"
	}
	return "network_error"
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperrors.ErrInvalidEnrollment):
		return "invalid_enrollment"
	case errors.Is(err, apperrors.ErrInvalidProgram):
		return "invalid_program"
	case errors.Is(err, apperrors.ErrNoRecords):
		return "no_records"
	case errors.Is(err, apperrors.ErrPortalServerError):
		return "server_error"
	default:
		return "unreachable"
	}
}

// ReasonFor maps an engine error to a user-safe explanation. Unknown errors
// collapse to the generic unreachable message so internals never leak to chat.
func ReasonFor(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInvalidEnrollment):
		return "Invalid enrollment number. Please check and try again."
	case errors.Is(err, apperrors.ErrInvalidProgram):
		return "Invalid programme code. Please check and try again."
	case errors.Is(err, apperrors.ErrNoRecords):
		return "No records found for this enrollment number and programme."
	case errors.Is(err, apperrors.ErrPortalServerError):
		return "The IGNOU portal reported an error. Please try again later."
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "The request took too long. Please try again."
	default:
		return "Unable to reach the IGNOU portal. Please try again later."
	}
}
