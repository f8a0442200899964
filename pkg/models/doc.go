// Package models defines the market data structures shared by growthcast's
// rate sources, lookup registry and API.
package models
