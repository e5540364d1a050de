package models

import "gorm.io/gorm"

// Migrate cria/atualiza todas as tabelas.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Usuario{},
		&Cliente{},
		&Moto{},
		&MotoImagem{},
		&Locacao{},
		&Boleto{},
		&ServicoLocacao{},
		&WebhookEvento{},
	)
}
