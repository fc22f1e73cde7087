/*
Package observability provides tools for monitoring the Switchboard engine.

It turns lifecycle hooks into Prometheus metrics and structured log lines. Both are
plain domain.LifecycleHooks values, so they compose with any hooks the host adds.
*/
package observability
