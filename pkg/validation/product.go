// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical
// operations.
//
// This package contains validators for user-provided inputs that end up in
// store keys, provenance URIs, or outbound provider queries. Using these
// validators prevents injection through crafted identifiers.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// productPattern matches valid product identifiers.
// Allows: lowercase letters, digits, hyphens. Must start alphanumeric.
// Max length: 40 characters.
var productPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]{0,39}$`)

// ValidateProductID validates a product identifier before it is used in
// store keys, Flux queries, or provider request URLs.
//
// Valid product ids:
//   - 1-40 characters
//   - lowercase letters a-z, digits 0-9
//   - hyphens (-) between segments
//
// Returns an error if the id is invalid.
//
// Example:
//
//	if err := validation.ValidateProductID(productID); err != nil {
//	    return nil, fmt.Errorf("invalid product id: %w", err)
//	}
func ValidateProductID(id string) error {
	if id == "" {
		return fmt.Errorf("product id cannot be empty")
	}

	if !productPattern.MatchString(id) {
		return fmt.Errorf("invalid product id format: %q (must be 1-40 lowercase alphanumeric chars or hyphens)", id)
	}

	return nil
}

// SanitizeProductID normalizes and validates a product identifier.
// Returns the lowercase id if valid, or an error if invalid.
//
// Use this when you need both validation and normalization:
//
//	safeID, err := validation.SanitizeProductID(userInput)
//	if err != nil {
//	    return err
//	}
func SanitizeProductID(id string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(id))
	if err := ValidateProductID(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
