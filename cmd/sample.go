package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// SampleRequirement is a reasonably complete API requirement for demos.
const SampleRequirement = `Feature: Create Customer API

Goal
Provide an API endpoint to create a customer profile used by downstream billing and analytics services.

Endpoints
POST /v1/customers

Authentication and Authorization
- Authentication: OAuth 2.0 bearer token required
- Authorization: Only roles "billing_admin" and "support_admin" can create customers

Request Schema
{
  "externalCustomerId": "string (required, max 64)",
  "email": "string (required, valid email format)",
  "phone": "string (optional)",
  "country": "string (required, ISO-3166 alpha-2)",
  "metadata": "object (optional, max 20 keys)"
}

Response Schema
201 Created:
{
  "customerId": "uuid",
  "externalCustomerId": "string",
  "createdAt": "ISO-8601 timestamp"
}

Errors
- 400 for invalid fields (include field-level error details)
- 401 if token is missing/invalid
- 403 if role is not allowed
- 409 if externalCustomerId already exists
- 500 for unexpected server errors

Reliability and Performance
- Latency target: p95 < 250ms, p99 < 500ms
- Availability target: 99.9% monthly
- Timeout: 2s; retries: no automatic retry on POST

Rate Limits
- 60 requests/minute per token

Idempotency
- Support Idempotency-Key header for POST /v1/customers (24-hour window)

Observability
- Log requestId, customerId, errorCode
- Emit metrics for p95 latency, error rate, and rate limit blocks
`

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print a sample requirement to try the auditor with",
	Long: `Print a sample "Create Customer API" requirement.

Pipe it into the auditor for a quick demo:
  clarity sample | clarity audit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprint(cmd.OutOrStdout(), SampleRequirement)
		return err
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
}
