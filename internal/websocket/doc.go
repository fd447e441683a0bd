// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

// Package websocket streams pipeline progress to subscribed clients: request
// lifecycle events, stage transitions, and periodic per-grid completion
// counts during sweeps.
//
// The stream is read-only. Clients may send ping frames and nothing else;
// there are no inbound commands. The hub's broadcast buffer is bounded and
// drops the oldest pending event when a burst outruns consumers - progress
// is advisory, so losing an intermediate event never corrupts client state.
package websocket
