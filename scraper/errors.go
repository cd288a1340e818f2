package scraper

import "errors"

var (
	// ErrProviderFetch marks a provider run that produced nothing: the
	// first page could not be fetched. The orchestrator converts it into a
	// zero contribution.
	ErrProviderFetch = errors.New("provider fetch failed")

	// ErrPageFetch marks a failed fetch on page > 1. Pagination stops and
	// earlier pages' records are kept.
	ErrPageFetch = errors.New("page fetch failed")

	// ErrAntiAutomation is raised on an explicit blocking signal (HTTP
	// 403/429, captcha interstitial). The provider run aborts early.
	ErrAntiAutomation = errors.New("anti-automation defense detected")

	// ErrRobotsDisallowed is raised when robots.txt forbids the path.
	ErrRobotsDisallowed = errors.New("path disallowed by robots.txt")
)
