package mocks

//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/sacahan/casualtrader/internal/market Provider
//go:generate mockgen -destination=./mock_engine.go -package=mocks github.com/sacahan/casualtrader/internal/agent DecisionEngine
