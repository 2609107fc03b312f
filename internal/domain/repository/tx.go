package repository

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Shipments       ShipmentRepository
	Disputes        DisputeRepository
	Settlements     SettlementRepository
	SKUWeights      SKUWeightRepository
	Reconciliations ReconciliationRepository
	Settings        SettingsRepository
}
