package download

import "errors"

// Sentinel errors for the download package. These are the caller-facing
// error kinds; API handlers match on them with errors.Is.
var (
	// ErrNotFound is returned when a download job record is not in the database.
	ErrNotFound = errors.New("download job not found")

	// ErrBookNotFound is returned when the metadata provider has no such book.
	ErrBookNotFound = errors.New("book not found")

	// ErrCandidateNotFound is returned when the supplied candidate id no
	// longer matches a discovered candidate.
	ErrCandidateNotFound = errors.New("download candidate not found")

	// ErrActiveDownloadExists is returned when a queued or downloading job
	// already covers the same (user, book, media type).
	ErrActiveDownloadExists = errors.New("active download already exists")

	// ErrInvalidTransition is returned for an illegal state machine transition.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrCancelNotAllowed is returned when cancellation is attempted from a
	// non-cancellable status.
	ErrCancelNotAllowed = errors.New("cancel not allowed")

	// ErrEngineUnavailable is returned when the download engine cannot be
	// reached after exhausting retries.
	ErrEngineUnavailable = errors.New("download engine unavailable")

	// ErrEngineRejected is returned when the download engine rejects a
	// request outright. Retrying will not help.
	ErrEngineRejected = errors.New("download engine rejected request")

	// ErrEngineJobNotFound is returned when the engine does not know the job.
	ErrEngineJobNotFound = errors.New("job not found in download engine")
)
