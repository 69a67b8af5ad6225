package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/courseledger-backend/internal/clients/redis"
	"github.com/yungbote/courseledger-backend/internal/data/repos"
	types "github.com/yungbote/courseledger-backend/internal/domain"
	"github.com/yungbote/courseledger-backend/internal/learning/completion"
	"github.com/yungbote/courseledger-backend/internal/observability"
	apperrors "github.com/yungbote/courseledger-backend/internal/pkg/errors"
	"github.com/yungbote/courseledger-backend/internal/pkg/validate"
	"github.com/yungbote/courseledger-backend/internal/platform/ctxutil"
	"github.com/yungbote/courseledger-backend/internal/platform/dbctx"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

type UpsertProgressInput struct {
	StudentID uuid.UUID       `json:"student_id" validate:"notnil_uuid"`
	CourseID  uuid.UUID       `json:"course_id" validate:"notnil_uuid"`
	ItemKind  types.ItemKind  `json:"item_kind" validate:"required,oneof=lesson quiz assignment"`
	ItemID    uuid.UUID       `json:"item_id" validate:"notnil_uuid"`
	Completed *bool           `json:"completed,omitempty"`
	Score     *int            `json:"score,omitempty" validate:"omitempty,min=0,max=100"`
	Answers   json.RawMessage `json:"answers,omitempty"`
}

func (in UpsertProgressInput) Ref() types.ItemRef {
	return types.ItemRef{Kind: in.ItemKind, ID: in.ItemID}
}

// Writebacker recomputes the cached enrollment progress after a completion event.
type Writebacker interface {
	Writeback(ctx context.Context, studentID, courseID uuid.UUID) (completion.Snapshot, error)
}

type LedgerService interface {
	Upsert(ctx context.Context, in UpsertProgressInput) (*types.ProgressRecord, error)
	Get(ctx context.Context, studentID, courseID uuid.UUID, ref types.ItemRef) (*types.ProgressRecord, error)
}

type ledgerService struct {
	db        *gorm.DB
	log       *logger.Logger
	catalog   CatalogService
	progress  repos.ProgressRecordRepo
	writeback Writebacker
	cache     redis.SnapshotCache
	now       func() time.Time
}

// NewLedgerService builds the ledger. writeback and cache may be nil.
func NewLedgerService(db *gorm.DB, baseLog *logger.Logger, catalog CatalogService, progress repos.ProgressRecordRepo, writeback Writebacker, cache redis.SnapshotCache) LedgerService {
	return &ledgerService{
		db:        db,
		log:       baseLog.With("service", "LedgerService"),
		catalog:   catalog,
		progress:  progress,
		writeback: writeback,
		cache:     cache,
		now:       time.Now,
	}
}

func (s *ledgerService) Upsert(ctx context.Context, in UpsertProgressInput) (rec *types.ProgressRecord, err error) {
	ctx = ctxutil.Default(ctx)
	ctx, span := startSpan(ctx, "ledger.Upsert",
		attribute.String("student_id", in.StudentID.String()),
		attribute.String("course_id", in.CourseID.String()),
		attribute.String("item", in.Ref().String()),
	)
	defer func() { endSpan(span, err) }()

	defer func() {
		if metrics := observability.Current(); metrics != nil {
			metrics.IncLedgerUpsert(string(in.ItemKind), upsertResult(err))
		}
	}()

	if err := validateUpsert(in); err != nil {
		return nil, err
	}

	// Catalog reads happen before the transaction opens.
	lesson, err := s.catalog.FindItem(ctx, in.CourseID, in.Ref())
	if err != nil {
		return nil, err
	}

	var wasCompleted bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := s.progress.GetForUpdate(dbc, in.StudentID, in.CourseID, in.Ref())
		if err != nil {
			return apperrors.WrapStore("lock progress", err)
		}
		wasCompleted = existing != nil && existing.Completed

		next, err := s.merge(existing, in, lesson)
		if err != nil {
			return err
		}
		if err := s.progress.Upsert(dbc, next); err != nil {
			return apperrors.WrapStore("upsert progress", err)
		}
		rec, err = s.progress.Get(dbc, in.StudentID, in.CourseID, in.Ref())
		if err != nil {
			return apperrors.WrapStore("reload progress", err)
		}
		if rec == nil {
			return apperrors.WrapStore("reload progress", gorm.ErrRecordNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cerr := s.cache.Invalidate(ctx, in.StudentID, in.CourseID); cerr != nil {
			s.log.Warn("snapshot cache invalidate failed", "student_id", in.StudentID, "course_id", in.CourseID, "error", cerr)
		}
	}
	if !wasCompleted && rec.Completed {
		if metrics := observability.Current(); metrics != nil {
			metrics.IncCompletionEvent(string(in.ItemKind))
		}
		// The ledger row is committed; a failed write-back is repaired by the next event or a backfill.
		if s.writeback != nil {
			if _, werr := s.writeback.Writeback(ctx, in.StudentID, in.CourseID); werr != nil {
				s.log.Error("progress writeback failed", "student_id", in.StudentID, "course_id", in.CourseID, "error", werr)
			}
		}
	}
	return rec, nil
}

func (s *ledgerService) merge(existing *types.ProgressRecord, in UpsertProgressInput, lesson *types.Lesson) (*types.ProgressRecord, error) {
	next := &types.ProgressRecord{
		StudentID: in.StudentID,
		CourseID:  in.CourseID,
		Answers:   datatypes.JSON([]byte("{}")),
	}
	if existing != nil {
		cp := *existing
		next = &cp
	}
	next.SetRef(in.Ref())

	if in.Score != nil {
		score := *in.Score
		next.Score = &score
	}
	if in.Completed != nil {
		next.Completed = *in.Completed
	}

	switch in.ItemKind {
	case types.ItemLesson:
		merged, answers, err := completion.MergeLessonAnswers(next.Answers, in.Answers)
		if err != nil {
			return nil, apperrors.Invalid("answers", "must be a JSON object")
		}
		next.Answers = datatypes.JSON(merged)
		if in.Completed == nil && completion.LessonComplete(completion.DefinitionOf(lesson), answers) {
			next.Completed = true
		}
	default:
		if hasPayload(in.Answers) {
			next.Answers = datatypes.JSON(bytes.TrimSpace(in.Answers))
		}
	}

	next.SubmittedAt = s.now().UTC()
	return next, nil
}

func (s *ledgerService) Get(ctx context.Context, studentID, courseID uuid.UUID, ref types.ItemRef) (*types.ProgressRecord, error) {
	var fields []apperrors.FieldError
	if studentID == uuid.Nil {
		fields = append(fields, apperrors.FieldError{Field: "student_id", Error: "is required"})
	}
	if courseID == uuid.Nil {
		fields = append(fields, apperrors.FieldError{Field: "course_id", Error: "is required"})
	}
	if !ref.Kind.Valid() {
		fields = append(fields, apperrors.FieldError{Field: "item_kind", Error: "must be one of lesson quiz assignment"})
	}
	if ref.ID == uuid.Nil {
		fields = append(fields, apperrors.FieldError{Field: "item_id", Error: "is required"})
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError(nil, fields...)
	}
	rec, err := s.progress.Get(dbctx.Context{Ctx: ctxutil.Default(ctx)}, studentID, courseID, ref)
	if err != nil {
		return nil, apperrors.WrapStore("get progress", err)
	}
	return rec, nil
}

func validateUpsert(in UpsertProgressInput) error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	if in.ItemKind == types.ItemLesson && in.Score != nil {
		return apperrors.Invalid("score", "is not allowed for lessons")
	}
	if hasPayload(in.Answers) && !completion.ValidAnswersObject(in.Answers) {
		return apperrors.Invalid("answers", "must be a JSON object")
	}
	return nil
}

func hasPayload(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && string(t) != "null"
}

func upsertResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperrors.ErrInvalidArgument):
		return "invalid"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
