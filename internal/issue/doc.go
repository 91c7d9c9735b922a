// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// suggestions for the user. The Issue catalog holds Markdown guidance for the
// failures smaug users hit most often, rendered with glamour.
package issue
