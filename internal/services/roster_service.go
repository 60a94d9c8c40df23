package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/fotoescola/api/internal/domain"
	"github.com/fotoescola/api/internal/platform/storage"
	"github.com/fotoescola/api/internal/repositories"
)

const accessCodeLength = 8

// accessCodeAlphabet avoids characters guardians confuse when typing codes
// from printed cards (0/O, 1/I/L).
const accessCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

var (
	// ErrRosterInvalidInput indicates the caller supplied invalid input parameters.
	ErrRosterInvalidInput = errors.New("roster: invalid input")
	// ErrRosterNotFound indicates the requested roster entry does not exist.
	ErrRosterNotFound = errors.New("roster: not found")
	// ErrRosterUnavailable indicates roster dependencies are currently unavailable.
	ErrRosterUnavailable = errors.New("roster: unavailable")
)

// photoStore abstracts the object storage uploader for easier testing.
type photoStore interface {
	Upload(ctx context.Context, objectPath, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, objectPath string) error
}

// RosterServiceDeps wires the dependencies required by the roster service.
type RosterServiceDeps struct {
	Schools     repositories.SchoolRepository
	Classes     repositories.ClassRepository
	Students    repositories.StudentRepository
	Photos      repositories.PhotoRepository
	Storage     photoStore
	Clock       func() time.Time
	Logger      func(ctx context.Context, event string, fields map[string]any)
	IDGenerator func() string
	CodeGen     func() (string, error)
}

type rosterService struct {
	schools  repositories.SchoolRepository
	classes  repositories.ClassRepository
	students repositories.StudentRepository
	photos   repositories.PhotoRepository
	storage  photoStore
	now      func() time.Time
	logger   func(ctx context.Context, event string, fields map[string]any)
	newID    func() string
	newCode  func() (string, error)
}

// NewRosterService constructs a RosterService validating required dependencies.
func NewRosterService(deps RosterServiceDeps) (RosterService, error) {
	if deps.Schools == nil {
		return nil, errors.New("roster service: school repository is required")
	}
	if deps.Classes == nil {
		return nil, errors.New("roster service: class repository is required")
	}
	if deps.Students == nil {
		return nil, errors.New("roster service: student repository is required")
	}
	if deps.Photos == nil {
		return nil, errors.New("roster service: photo repository is required")
	}
	if deps.Storage == nil {
		return nil, errors.New("roster service: photo storage is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	codeGen := deps.CodeGen
	if codeGen == nil {
		codeGen = generateAccessCode
	}

	return &rosterService{
		schools:  deps.Schools,
		classes:  deps.Classes,
		students: deps.Students,
		photos:   deps.Photos,
		storage:  deps.Storage,
		now: func() time.Time {
			return clock().UTC()
		},
		logger:  logger,
		newID:   idGen,
		newCode: codeGen,
	}, nil
}

// CreateSchool stores a new school.
func (s *rosterService) CreateSchool(ctx context.Context, name string) (domain.School, error) {
	if s == nil || s.schools == nil {
		return domain.School{}, ErrRosterUnavailable
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return domain.School{}, ErrRosterInvalidInput
	}

	now := s.now()
	school := domain.School{
		ID:        s.newID(),
		Name:      trimmed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.schools.Insert(ctx, school); err != nil {
		return domain.School{}, s.translateError(err)
	}
	s.logger(ctx, "roster.school.created", map[string]any{"schoolId": school.ID})
	return school, nil
}

// UpdateSchool renames a school.
func (s *rosterService) UpdateSchool(ctx context.Context, schoolID, name string) (domain.School, error) {
	if s == nil || s.schools == nil {
		return domain.School{}, ErrRosterUnavailable
	}
	id := strings.TrimSpace(schoolID)
	trimmed := strings.TrimSpace(name)
	if id == "" || trimmed == "" {
		return domain.School{}, ErrRosterInvalidInput
	}

	school, err := s.schools.FindByID(ctx, id)
	if err != nil {
		return domain.School{}, s.translateError(err)
	}
	school.Name = trimmed
	school.UpdatedAt = s.now()
	if err := s.schools.Update(ctx, school); err != nil {
		return domain.School{}, s.translateError(err)
	}
	return school, nil
}

// DeleteSchool removes a school.
func (s *rosterService) DeleteSchool(ctx context.Context, schoolID string) error {
	if s == nil || s.schools == nil {
		return ErrRosterUnavailable
	}
	id := strings.TrimSpace(schoolID)
	if id == "" {
		return ErrRosterInvalidInput
	}
	if err := s.schools.Delete(ctx, id); err != nil {
		return s.translateError(err)
	}
	s.logger(ctx, "roster.school.deleted", map[string]any{"schoolId": id})
	return nil
}

// GetSchool loads one school.
func (s *rosterService) GetSchool(ctx context.Context, schoolID string) (domain.School, error) {
	if s == nil || s.schools == nil {
		return domain.School{}, ErrRosterUnavailable
	}
	id := strings.TrimSpace(schoolID)
	if id == "" {
		return domain.School{}, ErrRosterInvalidInput
	}
	school, err := s.schools.FindByID(ctx, id)
	if err != nil {
		return domain.School{}, s.translateError(err)
	}
	return school, nil
}

// ListSchools returns all schools.
func (s *rosterService) ListSchools(ctx context.Context) ([]domain.School, error) {
	if s == nil || s.schools == nil {
		return nil, ErrRosterUnavailable
	}
	schools, err := s.schools.List(ctx)
	if err != nil {
		return nil, s.translateError(err)
	}
	return schools, nil
}

// CreateClass stores a new class within a school.
func (s *rosterService) CreateClass(ctx context.Context, schoolID, name string) (domain.Class, error) {
	if s == nil || s.classes == nil || s.schools == nil {
		return domain.Class{}, ErrRosterUnavailable
	}
	sid := strings.TrimSpace(schoolID)
	trimmed := strings.TrimSpace(name)
	if sid == "" || trimmed == "" {
		return domain.Class{}, ErrRosterInvalidInput
	}

	if _, err := s.schools.FindByID(ctx, sid); err != nil {
		return domain.Class{}, s.translateError(err)
	}

	now := s.now()
	class := domain.Class{
		ID:        s.newID(),
		SchoolID:  sid,
		Name:      trimmed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.classes.Insert(ctx, class); err != nil {
		return domain.Class{}, s.translateError(err)
	}
	s.logger(ctx, "roster.class.created", map[string]any{
		"classId":  class.ID,
		"schoolId": sid,
	})
	return class, nil
}

// UpdateClass renames a class.
func (s *rosterService) UpdateClass(ctx context.Context, classID, name string) (domain.Class, error) {
	if s == nil || s.classes == nil {
		return domain.Class{}, ErrRosterUnavailable
	}
	id := strings.TrimSpace(classID)
	trimmed := strings.TrimSpace(name)
	if id == "" || trimmed == "" {
		return domain.Class{}, ErrRosterInvalidInput
	}

	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		return domain.Class{}, s.translateError(err)
	}
	class.Name = trimmed
	class.UpdatedAt = s.now()
	if err := s.classes.Update(ctx, class); err != nil {
		return domain.Class{}, s.translateError(err)
	}
	return class, nil
}

// DeleteClass removes a class.
func (s *rosterService) DeleteClass(ctx context.Context, classID string) error {
	if s == nil || s.classes == nil {
		return ErrRosterUnavailable
	}
	id := strings.TrimSpace(classID)
	if id == "" {
		return ErrRosterInvalidInput
	}
	if err := s.classes.Delete(ctx, id); err != nil {
		return s.translateError(err)
	}
	s.logger(ctx, "roster.class.deleted", map[string]any{"classId": id})
	return nil
}

// ListClasses returns the classes of one school.
func (s *rosterService) ListClasses(ctx context.Context, schoolID string) ([]domain.Class, error) {
	if s == nil || s.classes == nil {
		return nil, ErrRosterUnavailable
	}
	sid := strings.TrimSpace(schoolID)
	if sid == "" {
		return nil, ErrRosterInvalidInput
	}
	classes, err := s.classes.ListBySchool(ctx, sid)
	if err != nil {
		return nil, s.translateError(err)
	}
	return classes, nil
}

// CreateStudent stores a new student with a freshly generated access code.
func (s *rosterService) CreateStudent(ctx context.Context, classID, name string) (domain.Student, error) {
	if s == nil || s.students == nil || s.classes == nil {
		return domain.Student{}, ErrRosterUnavailable
	}
	cid := strings.TrimSpace(classID)
	trimmed := strings.TrimSpace(name)
	if cid == "" || trimmed == "" {
		return domain.Student{}, ErrRosterInvalidInput
	}

	if _, err := s.classes.FindByID(ctx, cid); err != nil {
		return domain.Student{}, s.translateError(err)
	}

	code, err := s.newCode()
	if err != nil {
		return domain.Student{}, fmt.Errorf("roster service: generate access code: %w", err)
	}

	now := s.now()
	student := domain.Student{
		ID:         s.newID(),
		ClassID:    cid,
		Name:       trimmed,
		AccessCode: code,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.students.Insert(ctx, student); err != nil {
		return domain.Student{}, s.translateError(err)
	}
	s.logger(ctx, "roster.student.created", map[string]any{
		"studentId": student.ID,
		"classId":   cid,
	})
	return student, nil
}

// UpdateStudent renames a student.
func (s *rosterService) UpdateStudent(ctx context.Context, studentID, name string) (domain.Student, error) {
	if s == nil || s.students == nil {
		return domain.Student{}, ErrRosterUnavailable
	}
	id := strings.TrimSpace(studentID)
	trimmed := strings.TrimSpace(name)
	if id == "" || trimmed == "" {
		return domain.Student{}, ErrRosterInvalidInput
	}

	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		return domain.Student{}, s.translateError(err)
	}
	student.Name = trimmed
	student.UpdatedAt = s.now()
	if err := s.students.Update(ctx, student); err != nil {
		return domain.Student{}, s.translateError(err)
	}
	return student, nil
}

// RegenerateAccessCode replaces a student's access code, invalidating the old
// one immediately.
func (s *rosterService) RegenerateAccessCode(ctx context.Context, studentID string) (domain.Student, error) {
	if s == nil || s.students == nil {
		return domain.Student{}, ErrRosterUnavailable
	}
	id := strings.TrimSpace(studentID)
	if id == "" {
		return domain.Student{}, ErrRosterInvalidInput
	}

	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		return domain.Student{}, s.translateError(err)
	}

	code, err := s.newCode()
	if err != nil {
		return domain.Student{}, fmt.Errorf("roster service: generate access code: %w", err)
	}
	student.AccessCode = code
	student.UpdatedAt = s.now()

	if err := s.students.Update(ctx, student); err != nil {
		return domain.Student{}, s.translateError(err)
	}
	s.logger(ctx, "roster.student.codeRegenerated", map[string]any{"studentId": id})
	return student, nil
}

// DeleteStudent removes a student.
func (s *rosterService) DeleteStudent(ctx context.Context, studentID string) error {
	if s == nil || s.students == nil {
		return ErrRosterUnavailable
	}
	id := strings.TrimSpace(studentID)
	if id == "" {
		return ErrRosterInvalidInput
	}
	if err := s.students.Delete(ctx, id); err != nil {
		return s.translateError(err)
	}
	s.logger(ctx, "roster.student.deleted", map[string]any{"studentId": id})
	return nil
}

// GetStudent loads one student.
func (s *rosterService) GetStudent(ctx context.Context, studentID string) (domain.Student, error) {
	if s == nil || s.students == nil {
		return domain.Student{}, ErrRosterUnavailable
	}
	id := strings.TrimSpace(studentID)
	if id == "" {
		return domain.Student{}, ErrRosterInvalidInput
	}
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		return domain.Student{}, s.translateError(err)
	}
	return student, nil
}

// ListStudents returns the students of one class.
func (s *rosterService) ListStudents(ctx context.Context, classID string) ([]domain.Student, error) {
	if s == nil || s.students == nil {
		return nil, ErrRosterUnavailable
	}
	cid := strings.TrimSpace(classID)
	if cid == "" {
		return nil, ErrRosterInvalidInput
	}
	students, err := s.students.ListByClass(ctx, cid)
	if err != nil {
		return nil, s.translateError(err)
	}
	return students, nil
}

// UploadPhoto stores the image object and registers its photo record. The
// object file name becomes the photo id, so the same upload twice converges
// on one record.
func (s *rosterService) UploadPhoto(ctx context.Context, cmd UploadPhotoCommand) (domain.Photo, error) {
	if s == nil || s.students == nil || s.photos == nil || s.storage == nil {
		return domain.Photo{}, ErrRosterUnavailable
	}
	studentID := strings.TrimSpace(cmd.StudentID)
	if studentID == "" || cmd.Body == nil {
		return domain.Photo{}, ErrRosterInvalidInput
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(cmd.FileName)), ".")
	if ext == "" {
		ext = "jpg"
	}

	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		return domain.Photo{}, s.translateError(err)
	}

	photoID := strings.ToLower(s.newID())
	objectPath, err := storage.BuildObjectPath(storage.PurposePhoto, storage.PathParams{
		PhotoID:   photoID,
		Extension: ext,
	})
	if err != nil {
		return domain.Photo{}, ErrRosterInvalidInput
	}

	contentType := strings.TrimSpace(cmd.ContentType)
	if contentType == "" {
		contentType = "image/jpeg"
	}

	url, err := s.storage.Upload(ctx, objectPath, contentType, cmd.Body)
	if err != nil {
		return domain.Photo{}, fmt.Errorf("roster service: upload photo: %w", err)
	}

	photo, err := s.photos.CreateIfAbsent(ctx, domain.Photo{
		ID:        photoID,
		StudentID: studentID,
		URL:       url,
		CreatedAt: s.now(),
	})
	if err != nil {
		// Keep storage consistent with the record set: remove the orphan object.
		if delErr := s.storage.Delete(ctx, objectPath); delErr != nil {
			s.logger(ctx, "roster.photo.orphanCleanupFailed", map[string]any{
				"objectPath": objectPath,
				"error":      delErr.Error(),
			})
		}
		return domain.Photo{}, s.translateError(err)
	}

	s.logger(ctx, "roster.photo.uploaded", map[string]any{
		"photoId":   photo.ID,
		"studentId": studentID,
	})
	return photo, nil
}

// DeletePhoto removes the photo record and its storage object.
func (s *rosterService) DeletePhoto(ctx context.Context, photoID string) error {
	if s == nil || s.photos == nil || s.storage == nil {
		return ErrRosterUnavailable
	}
	id := strings.TrimSpace(photoID)
	if id == "" {
		return ErrRosterInvalidInput
	}

	photo, err := s.photos.FindByID(ctx, id)
	if err != nil {
		return s.translateError(err)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(photo.URL)), ".")
	if ext == "" {
		ext = "jpg"
	}
	objectPath, err := storage.BuildObjectPath(storage.PurposePhoto, storage.PathParams{
		PhotoID:   id,
		Extension: ext,
	})
	if err == nil {
		if delErr := s.storage.Delete(ctx, objectPath); delErr != nil {
			s.logger(ctx, "roster.photo.objectDeleteFailed", map[string]any{
				"photoId": id,
				"error":   delErr.Error(),
			})
		}
	}

	if err := s.photos.Delete(ctx, id); err != nil {
		return s.translateError(err)
	}
	s.logger(ctx, "roster.photo.deleted", map[string]any{"photoId": id})
	return nil
}

// ListStudentPhotos returns a student's photos, newest first.
func (s *rosterService) ListStudentPhotos(ctx context.Context, studentID string) ([]domain.Photo, error) {
	if s == nil || s.photos == nil {
		return nil, ErrRosterUnavailable
	}
	id := strings.TrimSpace(studentID)
	if id == "" {
		return nil, ErrRosterInvalidInput
	}
	photos, err := s.photos.ListByStudent(ctx, id)
	if err != nil {
		return nil, s.translateError(err)
	}
	return photos, nil
}

func (s *rosterService) translateError(err error) error {
	switch {
	case isRepositoryNotFound(err):
		return ErrRosterNotFound
	case isRepositoryUnavailable(err):
		return ErrRosterUnavailable
	default:
		return err
	}
}

func generateAccessCode() (string, error) {
	buf := make([]byte, accessCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := make([]byte, accessCodeLength)
	for i, b := range buf {
		code[i] = accessCodeAlphabet[int(b)%len(accessCodeAlphabet)]
	}
	return string(code), nil
}

var _ RosterService = (*rosterService)(nil)
