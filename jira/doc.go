// Package jira maps the JSON payloads of a Jira REST API into typed,
// URL-addressable resource objects.
//
// Every JSON object carrying a "self" link becomes the resource kind
// registered for that URL's path; nested objects without one become plain
// attribute containers. Resources know how to fetch themselves (Find),
// write field changes back (Update) and remove themselves (Delete), all
// through a shared Session that owns retries, rate limiting and
// fire-and-forget background mutations.
package jira
