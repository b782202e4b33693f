package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/studygraph/internal/app/models"
	"github.com/yigit/studygraph/internal/app/repositories"
	"github.com/yigit/studygraph/internal/pkg/apperrors"
	"github.com/yigit/studygraph/internal/pkg/filestorage"
	"github.com/yigit/studygraph/internal/pkg/schedule"
)

// UploadResult is the outcome of a schedule upload
type UploadResult struct {
	Courses    []models.Course
	Statuses   []schedule.RowStatus
	Attachment *models.Attachment
}

// CourseService ingests schedule files and serves stored course lists
type CourseService struct {
	userRepo repositories.UserRepository
	storage  filestorage.FileStorage
	parser   *schedule.Parser
	feed     *ProfileFeed
	maxSize  int64
	logger   zerolog.Logger
}

// NewCourseService creates a new CourseService. maxSize limits uploads in bytes.
func NewCourseService(
	userRepo repositories.UserRepository,
	storage filestorage.FileStorage,
	parser *schedule.Parser,
	feed *ProfileFeed,
	maxSize int64,
	logger zerolog.Logger,
) *CourseService {
	return &CourseService{
		userRepo: userRepo,
		storage:  storage,
		parser:   parser,
		feed:     feed,
		maxSize:  maxSize,
		logger:   logger,
	}
}

// Upload parses a CSV schedule, keeps a copy of the file and replaces the
// user's course list with the rows that parsed successfully.
func (s *CourseService) Upload(ctx context.Context, userID, fileName string, r io.Reader) (*UploadResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, apperrors.NewCustomError(apperrors.ErrPayloadTooLarge,
			fmt.Sprintf("Schedule files are limited to %d bytes.", s.maxSize))
	}

	parsed, err := s.parser.Parse(bytes.NewReader(data))
	if errors.Is(err, schedule.ErrNoValidRows) || errors.Is(err, schedule.ErrNoHeader) {
		return nil, apperrors.NewCustomError(apperrors.ErrNoValidCourses, schedule.NoValidRowsMessage).
			WithDetails(map[string]interface{}{"statuses": parsed.Statuses})
	}
	if err != nil {
		return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed,
			`Parsing failed. Confirm the CSV columns use headers like "Course Name" and "Location".`)
	}

	var attachment *models.Attachment
	if s.storage != nil {
		info, err := s.storage.Save(bytes.NewReader(data), fileName, path.Join("schedules", userID))
		if err != nil {
			return nil, fmt.Errorf("failed to store schedule file: %w", err)
		}
		attachment = &models.Attachment{FileName: fileName, URL: info.Path, UploadedAt: time.Now().UTC()}
	}

	if err := s.userRepo.ReplaceCourses(ctx, userID, parsed.Courses, attachment); err != nil {
		if attachment != nil {
			if delErr := s.storage.DeleteFile(attachment.URL); delErr != nil {
				s.logger.Warn().Err(delErr).Str("path", attachment.URL).Msg("Failed to remove orphaned schedule file")
			}
		}
		return nil, fmt.Errorf("failed to save courses: %w", err)
	}

	s.logger.Info().Str("userId", userID).Int("courses", len(parsed.Courses)).Int("rows", len(parsed.Statuses)).Msg("Schedule uploaded")
	s.feed.RefreshQuietly(ctx)

	return &UploadResult{Courses: parsed.Courses, Statuses: parsed.Statuses, Attachment: attachment}, nil
}

// List returns the stored courses of userID
func (s *CourseService) List(ctx context.Context, userID string) ([]models.Course, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Courses, nil
}
