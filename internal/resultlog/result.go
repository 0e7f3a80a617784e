// Package resultlog records crawl outcomes and serves them in pages.
//
// Every outcome is a typed Result so tests and storage can inspect the error
// taxonomy structurally; Line renders the human-readable form shown to users.
package resultlog

import "fmt"

// Kind identifies the variant of a Result.
type Kind string

const (
	// KindTitleFound records the title of a fetched page.
	KindTitleFound Kind = "title"
	// KindLinkFound records one outbound link of a fetched page.
	KindLinkFound Kind = "link"
	// KindSkipped records a URL that was not fetched.
	KindSkipped Kind = "skipped"
	// KindFetchError records a URL whose fetch failed.
	KindFetchError Kind = "error"
)

// Skip reasons.
const (
	ReasonRobotsDisallowed  = "robots.txt disallowed"
	ReasonRobotsUnavailable = "robots.txt unavailable"
)

// UntitledPlaceholder is shown instead of a title for pages without one.
const UntitledPlaceholder = "(untitled)"

// Result is one recorded crawl outcome.
type Result struct {
	Kind Kind `json:"kind"`

	// URL is the page the result is about (the source page for links).
	URL string `json:"url"`

	// Target is the discovered link for KindLinkFound.
	Target string `json:"target,omitempty"`

	// Title is the page title for KindTitleFound; empty when HasTitle is false.
	Title    string `json:"title,omitempty"`
	HasTitle bool   `json:"hasTitle,omitempty"`

	// Reason explains a KindSkipped result.
	Reason string `json:"reason,omitempty"`

	// Message and FailureKind describe a KindFetchError result.
	Message     string `json:"message,omitempty"`
	FailureKind string `json:"failureKind,omitempty"`
}

// TitleFound creates a title result.
func TitleFound(url, title string) Result {
	return Result{Kind: KindTitleFound, URL: url, Title: title, HasTitle: true}
}

// Untitled creates the title placeholder for a page without a title.
func Untitled(url string) Result {
	return Result{Kind: KindTitleFound, URL: url}
}

// LinkFound creates a link result.
func LinkFound(source, target string) Result {
	return Result{Kind: KindLinkFound, URL: source, Target: target}
}

// Skipped creates a skip result.
func Skipped(url, reason string) Result {
	return Result{Kind: KindSkipped, URL: url, Reason: reason}
}

// FetchError creates an error result.
func FetchError(url, failureKind, message string) Result {
	return Result{Kind: KindFetchError, URL: url, FailureKind: failureKind, Message: message}
}

// Line renders the result as a display line.
func (r Result) Line() string {
	switch r.Kind {
	case KindTitleFound:
		if !r.HasTitle {
			return fmt.Sprintf("Title: %s %s", UntitledPlaceholder, r.URL)
		}
		return "Title: " + r.Title
	case KindLinkFound:
		return "Link: " + r.Target
	case KindSkipped:
		return fmt.Sprintf("Skipped (%s): %s", r.Reason, r.URL)
	case KindFetchError:
		return "An error occurred: " + r.Message
	default:
		return fmt.Sprintf("Unknown result %q: %s", r.Kind, r.URL)
	}
}
