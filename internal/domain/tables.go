package domain

// Tables lists the models managed by AutoMigrate, referenced tables first.
var Tables = []interface{}{
	&User{},
	&Product{},
	&TransactionRecord{},
}
