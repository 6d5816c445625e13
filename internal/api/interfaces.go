package api

import "github.com/persistorai/neighborrank/internal/domain"

// RankService runs rank requests for RankHandler.
type RankService = domain.RankService

// EdgeService writes edges for EdgeHandler.
type EdgeService = domain.EdgeService
