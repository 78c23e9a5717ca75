// Package dedupe suppresses duplicate processing of conversational
// callbacks and updates within a configurable time window.
package dedupe
