// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colors and lip gloss styles of cvetriage.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. A Theme is built for a ColorMode; "never" renders plain text so
output stays usable in pipes and tests.

# Document styles

	Identifier - CVE identifiers
	Keyword    - action keywords (add, edit, ignore, ...)
	Priority() - one color per priority, flagged for unknown values
	Package    - package names
	Flagged    - invalid but representable values (skip, untriaged)

# Output styles

	Highlight - keyword terms in tool output
	Location  - file:line prefixes in grep-style output
	Status    - process status lines
*/
package styles
