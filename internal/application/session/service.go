package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/bryanwahyu/medreport-ai/internal/application"
	appreport "github.com/bryanwahyu/medreport-ai/internal/application/report"
	"github.com/bryanwahyu/medreport-ai/internal/domain/analysis"
	"github.com/bryanwahyu/medreport-ai/internal/domain/report"
	"github.com/bryanwahyu/medreport-ai/internal/domain/stageerrors"
)

// NoAnswer replaces a missing answer so the client never renders null.
const NoAnswer = "I couldn't find a specific answer in the report."

var (
	ErrEmptyReport    = errors.New("report text is empty")
	ErrReportTooLarge = errors.New("report text is too large")
	ErrEmptyQuestion  = errors.New("question is empty")
	ErrNotFound       = analysis.ErrNotFound
)

// Pipeline is the report-analysis core used by the service.
type Pipeline interface {
	AnalyzeFullReport(ctx context.Context, text string) report.AnalysisResult
	AnswerQuestion(ctx context.Context, text, question string) appreport.Answer
}

// TextReader turns a report image into text.
type TextReader interface {
	Process(ctx context.Context, image []byte, mimeType string) (string, error)
}

// Service implements the report session use cases.
// Repo, Errors, Images and OCR are optional.
// Service is safe for concurrent use.
type Service struct {
	Pipeline Pipeline
	OCR      TextReader
	Repo     analysis.Repository
	Errors   stageerrors.Repository
	Images   analysis.ImageStore
	Store    *Store
	Clock    application.Clock
	Logger   *slog.Logger

	// MaxChars bounds accepted report text; 0 means unbounded.
	MaxChars int
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}

func (s *Service) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

// AnalyzeText runs the pipeline on text and opens a new session for it.
func (s *Service) AnalyzeText(ctx context.Context, tenant, text string) (*Session, error) {
	return s.analyze(ctx, tenant, text, "")
}

// AnalyzeImage stores the image (when an image store is configured),
// extracts its text and analyses it.
func (s *Service) AnalyzeImage(ctx context.Context, tenant string, image []byte, mimeType string) (*Session, error) {
	if s.OCR == nil {
		return nil, fmt.Errorf("analyze image: ocr not configured")
	}

	var imageURL string
	if s.Images != nil {
		key := fmt.Sprintf("%s/reports/%s%s", tenant, uuid.New().String(), extensionFor(mimeType))
		url, err := s.Images.Put(ctx, key, image, mimeType)
		if err != nil {
			s.logger().Warn("session: image upload failed", "tenant", tenant, "error", err)
		} else {
			imageURL = url
		}
	}

	text, err := s.OCR.Process(ctx, image, mimeType)
	if err != nil {
		s.recordStageError(ctx, tenant, "", stageerrors.StageOCR, err.Error())
		return nil, fmt.Errorf("analyze image: %w", err)
	}
	return s.analyze(ctx, tenant, text, imageURL)
}

func (s *Service) analyze(ctx context.Context, tenant, text, imageURL string) (*Session, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyReport
	}
	if s.MaxChars > 0 && utf8.RuneCountInString(text) > s.MaxChars {
		return nil, fmt.Errorf("%w: more than %d characters", ErrReportTooLarge, s.MaxChars)
	}

	res := s.Pipeline.AnalyzeFullReport(ctx, text)
	sess := &Session{
		ID:         uuid.New().String(),
		TenantID:   tenant,
		ReportText: text,
		Result:     res,
		ImageURL:   imageURL,
		QA:         []report.QAExchange{},
		CreatedAt:  s.clock().Now(),
	}
	s.Store.Put(sess)
	s.persist(ctx, sess)

	s.logger().Info("session: report analysed",
		"tenant", tenant,
		"session_id", sess.ID,
		"report_type", res.ReportType,
		"risk_level", res.RiskLevel,
	)
	return sess, nil
}

// persist writes the analysis and its degraded stages. Failures are logged.
func (s *Service) persist(ctx context.Context, sess *Session) {
	res := sess.Result
	if s.Repo != nil {
		raw, err := json.Marshal(res)
		if err != nil {
			s.logger().Error("session: encode result", "session_id", sess.ID, "error", err)
		} else {
			rec := &analysis.Record{
				ID:         analysis.ID(sess.ID),
				TenantID:   sess.TenantID,
				ReportText: sess.ReportText,
				ReportType: string(res.ReportType),
				RiskLevel:  string(res.RiskLevel),
				Result:     string(raw),
				ImageURL:   sess.ImageURL,
				Degraded:   res.Errors.Any() || res.Error != "",
				CreatedAt:  sess.CreatedAt,
			}
			if err := s.Repo.Save(ctx, rec); err != nil {
				s.logger().Error("session: save analysis", "session_id", sess.ID, "error", err)
			}
		}
	}

	for stage, msg := range map[string]*string{
		stageerrors.StageSummarization:  res.Errors.Summarization,
		stageerrors.StageClassification: res.Errors.Classification,
		stageerrors.StageNER:            res.Errors.NER,
	} {
		if msg != nil {
			s.recordStageError(ctx, sess.TenantID, sess.ID, stage, *msg)
		}
	}
	if res.Error != "" {
		s.recordStageError(ctx, sess.TenantID, sess.ID, stageerrors.StageAnalysis, res.Error)
	}
}

func (s *Service) recordStageError(ctx context.Context, tenant, analysisID, stage, msg string) {
	if s.Errors == nil {
		return
	}
	e := &stageerrors.StageError{
		TenantID:   tenant,
		AnalysisID: analysisID,
		Stage:      stage,
		Message:    msg,
		CreatedAt:  s.clock().Now(),
	}
	if err := s.Errors.Save(ctx, e); err != nil {
		s.logger().Error("session: save stage error", "stage", stage, "error", err)
	}
}

// Ask answers a question about the session's report and appends the
// exchange to the session.
func (s *Service) Ask(ctx context.Context, tenant, id, question string) (report.QAExchange, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return report.QAExchange{}, ErrEmptyQuestion
	}
	sess, err := s.Get(ctx, tenant, id)
	if err != nil {
		return report.QAExchange{}, err
	}

	ans := s.Pipeline.AnswerQuestion(ctx, sess.ReportText, question)
	qa := report.QAExchange{Question: question, Answer: NoAnswer}
	if ans.Answer != nil && strings.TrimSpace(*ans.Answer) != "" {
		qa.Answer = *ans.Answer
		score := ans.Score
		qa.Score = &score
	} else if ans.Error != nil {
		s.logger().Warn("session: question not answered", "session_id", id, "error", *ans.Error)
	}

	s.Store.AppendQA(tenant, id, qa)
	return qa, nil
}

// Get returns the live session, or rebuilds one without questions from the
// history store.
func (s *Service) Get(ctx context.Context, tenant, id string) (*Session, error) {
	if sess, ok := s.Store.Get(tenant, id); ok {
		return sess, nil
	}
	if s.Repo == nil {
		return nil, ErrNotFound
	}
	rec, err := s.Repo.Get(ctx, tenant, analysis.ID(id))
	if err != nil {
		return nil, err
	}
	sess, err := fromRecord(rec)
	if err != nil {
		return nil, err
	}
	s.Store.Put(sess)
	return sess, nil
}

// Questions returns the exchanges of a session, oldest first.
func (s *Service) Questions(ctx context.Context, tenant, id string) ([]report.QAExchange, error) {
	sess, err := s.Get(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	return sess.QA, nil
}

// History lists persisted analyses, newest first.
func (s *Service) History(ctx context.Context, tenant string, page, pageSize int) ([]*analysis.Record, error) {
	if s.Repo == nil {
		return []*analysis.Record{}, nil
	}
	list, err := s.Repo.Paginate(ctx, tenant, page, pageSize)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*analysis.Record{}
	}
	return list, nil
}

// Reset discards the live session and its persisted analysis.
func (s *Service) Reset(ctx context.Context, tenant, id string) error {
	removed := s.Store.Delete(tenant, id)
	if s.Repo == nil {
		if !removed {
			return ErrNotFound
		}
		return nil
	}
	err := s.Repo.Delete(ctx, tenant, analysis.ID(id))
	if errors.Is(err, analysis.ErrNotFound) && removed {
		return nil
	}
	return err
}

func fromRecord(rec *analysis.Record) (*Session, error) {
	var res report.AnalysisResult
	if err := json.Unmarshal([]byte(rec.Result), &res); err != nil {
		return nil, fmt.Errorf("decode analysis %s: %w", rec.ID, err)
	}
	if res.Entities == nil {
		res.Entities = []report.Entity{}
	}
	return &Session{
		ID:         string(rec.ID),
		TenantID:   rec.TenantID,
		ReportText: rec.ReportText,
		Result:     res,
		ImageURL:   rec.ImageURL,
		QA:         []report.QAExchange{},
		CreatedAt:  rec.CreatedAt,
	}, nil
}

func extensionFor(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ""
}
