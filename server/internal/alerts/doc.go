// Package alerts watches configured rides and notifies webhooks when a wait
// drops to a rule's threshold. Rules are evaluated against each ingestion
// batch; notifications go to Teams, Slack, or generic HTTP targets.
package alerts
