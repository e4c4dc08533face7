// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

// Package services adapts Giftwise components to suture.Service.
//
// Every service blocks in Serve until its context is canceled, returns
// ctx.Err() on a clean stop, and implements fmt.Stringer so supervisor logs
// name it.
package services
