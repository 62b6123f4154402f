package domain

var Tables = []interface{}{
	// Catalog
	&Category{},
	&Product{},
	// Sales
	&Customer{},
	&Order{},
	&OrderItem{},
	&Payment{},
	// Provider audit
	&WebhookEvent{},
}
