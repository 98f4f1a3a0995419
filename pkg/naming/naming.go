// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package naming

import (
	"strings"

	"github.com/google/uuid"
)

// maxNameLength keeps generated names inside the shortest limit of the
// resource kinds we create (SQL server names allow 63 characters).
const maxNameLength = 63

// RandomName appends a random lowercase suffix to prefix.
func RandomName(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	name := prefix + suffix
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}
	return name
}

// Password returns an administrator password that satisfies the Azure SQL
// complexity rules: upper and lower case letters, digits and symbols.
func Password() string {
	return "Pa5$" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
