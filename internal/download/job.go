package download

import (
	"fmt"
	"time"

	"github.com/vmunix/bookarr/internal/catalog"
)

// Job represents one download job. It is opaque: construction and
// mutation go through NewJob and the explicit mutators below so the
// state machine invariants cannot be bypassed. A job is never deleted,
// only moved to a terminal status.
type Job struct {
	id              int64
	userID          string
	bookID          int64
	mediaType       catalog.MediaType
	status          Status
	source          string
	externalID      string
	magnet          string
	failureReason   string
	createdAt       time.Time
	updatedAt       time.Time
	completedAt     *time.Time
	firstNotFoundAt *time.Time
}

// NewJob creates a job in Queued for the given scope.
func NewJob(userID string, bookID int64, mediaType catalog.MediaType, source, externalID, magnet string, now time.Time) *Job {
	now = now.UTC()
	return &Job{
		userID:     userID,
		bookID:     bookID,
		mediaType:  mediaType,
		status:     StatusQueued,
		source:     source,
		externalID: externalID,
		magnet:     magnet,
		createdAt:  now,
		updatedAt:  now,
	}
}

// Accessors.

func (j *Job) ID() int64                    { return j.id }
func (j *Job) UserID() string               { return j.userID }
func (j *Job) BookID() int64                { return j.bookID }
func (j *Job) MediaType() catalog.MediaType { return j.mediaType }
func (j *Job) Status() Status               { return j.status }
func (j *Job) Source() string               { return j.source }
func (j *Job) ExternalID() string           { return j.externalID }
func (j *Job) Magnet() string               { return j.magnet }
func (j *Job) FailureReason() string        { return j.failureReason }
func (j *Job) CreatedAt() time.Time         { return j.createdAt }
func (j *Job) UpdatedAt() time.Time         { return j.updatedAt }
func (j *Job) CompletedAt() *time.Time      { return j.completedAt }
func (j *Job) FirstNotFoundAt() *time.Time  { return j.firstNotFoundAt }

// TransitionTo moves the job to a new status. A same-state transition
// is accepted as an idempotent refresh that only bumps UpdatedAt. An
// illegal transition returns ErrInvalidTransition naming both states
// and leaves the job untouched.
func (j *Job) TransitionTo(to Status, now time.Time) error {
	now = now.UTC()

	if to == j.status {
		j.updatedAt = now
		return nil
	}
	if !j.status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.status, to)
	}

	switch to {
	case StatusCompleted:
		t := now
		j.completedAt = &t
		j.failureReason = ""
		j.firstNotFoundAt = nil
	case StatusFailed:
		j.completedAt = nil
	case StatusCanceled:
		j.completedAt = nil
		j.failureReason = ""
	}

	j.status = to
	j.updatedAt = now
	return nil
}

// Complete marks the job completed.
func (j *Job) Complete(now time.Time) error {
	return j.TransitionTo(StatusCompleted, now)
}

// Fail marks the job failed with a reason. A Failed -> Failed
// re-application replaces the reason without being rejected.
func (j *Job) Fail(reason string, now time.Time) error {
	if err := j.TransitionTo(StatusFailed, now); err != nil {
		return err
	}
	j.failureReason = reason
	return nil
}

// Cancel marks the job canceled.
func (j *Job) Cancel(now time.Time) error {
	return j.TransitionTo(StatusCanceled, now)
}

// ObserveNotFound records that the engine reported the job missing and
// returns the time of the first such observation. Later observations do
// not move the timestamp.
func (j *Job) ObserveNotFound(now time.Time) time.Time {
	now = now.UTC()
	if j.firstNotFoundAt == nil {
		t := now
		j.firstNotFoundAt = &t
	}
	j.updatedAt = now
	return *j.firstNotFoundAt
}

// ObserveFound clears the not-found marker once the engine reports the
// job present again.
func (j *Job) ObserveFound(now time.Time) {
	j.firstNotFoundAt = nil
	j.updatedAt = now.UTC()
}

// SetExternalID records the engine-assigned handle after enqueue.
func (j *Job) SetExternalID(id string) {
	j.externalID = id
}
