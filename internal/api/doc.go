// Package api handles the HTTP requests Cloud Tasks delivers to this
// service: authentication, payload parsing, dispatch to the task executor,
// and mapping of task outcomes to the status codes that drive (or suppress)
// queue-side retry.
package api
