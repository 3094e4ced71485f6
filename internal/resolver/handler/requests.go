package handler

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"sdi-resolver/internal/resolver"
	dErrors "sdi-resolver/pkg/domain-errors"
)

const dateOnly = "2006-01-02"

// parseQuery reads chainId, network, date and tag from the query string.
func parseQuery(didParam string, values url.Values) (resolver.Query, error) {
	didValue, err := url.PathUnescape(didParam)
	if err != nil {
		return resolver.Query{}, dErrors.New(dErrors.CodeInvalidIdentifier, "did is not a valid path segment")
	}
	q := resolver.Query{
		DID:     strings.TrimSpace(didValue),
		Network: strings.TrimSpace(values.Get("network")),
		Tag:     strings.TrimPrefix(strings.TrimSpace(values.Get("tag")), "#"),
	}
	if q.DID == "" {
		return q, dErrors.New(dErrors.CodeInvalidIdentifier, "did is required")
	}

	if raw := strings.TrimSpace(values.Get("chainId")); raw != "" {
		chainID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return q, dErrors.New(dErrors.CodeBadRequest, "chainId must be an unsigned integer")
		}
		q.ChainID = &chainID
	}

	if raw := strings.TrimSpace(values.Get("date")); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			return q, dErrors.New(dErrors.CodeBadRequest, "date must be RFC 3339 or YYYY-MM-DD")
		}
		q.Date = &date
	}
	return q, nil
}

// parseDate accepts a full timestamp or a calendar day, read as midnight UTC.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(dateOnly, raw)
}
