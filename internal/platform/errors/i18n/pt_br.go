package i18n

var ptBRCatalog = &Catalog{
	locale: "pt-BR",
	messages: map[Code]string{
		CodeUnknown: "Ocorreu um erro inesperado",

		// Plant errors
		CodePlantNameEmpty:   "O nome da planta não pode ficar vazio",
		CodePlantNameTooLong: "O nome da planta deve ter no máximo {{.MaxLength}} caracteres",
		CodeInvalidAction:    "Sua planta não pode fazer isso agora",
		CodeCooldownActive:   "Aguarde {{.Remaining}} antes de fazer isso de novo",

		// Item errors
		CodeItemUnknown:       "Item desconhecido: {{.Item}}",
		CodeItemNotForSale:    "Esse item não está à venda",
		CodeItemNotHeld:       "Você não tem um item {{.Item}}",
		CodeInsufficientCoins: "Você precisa de {{.Price}} moedas mas tem apenas {{.Held}}",

		// Account errors
		CodeUnauthenticated:   "Um certificado de cliente é necessário",
		CodeUsernameEmpty:     "O nome de usuário não pode ficar vazio",
		CodeUsernameInvalid:   "O nome de usuário deve usar ASCII imprimível, no máximo {{.MaxLength}} caracteres",
		CodeUsernameTaken:     "Esse nome de usuário já está em uso",
		CodePasswordTooShort:  "A senha deve ter pelo menos {{.MinLength}} caracteres",
		CodePasswordNotSet:    "Defina uma senha antes de vincular um novo certificado",
		CodePasswordIncorrect: "Senha incorreta",

		// Certificate errors
		CodeCertificateActive: "O certificado ativo não pode ser removido",
		CodeCertificateLinked: "Este certificado já está vinculado a uma conta",
		CodeLinkGrantInvalid:  "O token de vínculo é inválido",
		CodeLinkGrantExpired:  "O token de vínculo expirou",
		CodeLinkGrantMismatch: "O campo {{.Field}} do token de vínculo não confere",

		// Mailbox errors
		CodeMessageSubjectEmpty:   "O assunto da mensagem não pode ficar vazio",
		CodeMessageSubjectTooLong: "O assunto da mensagem deve ter no máximo {{.MaxLength}} caracteres",
		CodeMessageBodyTooLong:    "O corpo da mensagem deve ter no máximo {{.MaxLength}} caracteres",
		CodeRecipientUnknown:      "Nenhum jardineiro com esse nome",
		CodeFilterInvalid:         "O filtro da caixa de mensagens é inválido: {{.Detail}}",

		// Storage errors
		CodeNotFound: "O recurso solicitado não foi encontrado",
	},
}

func init() {
	RegisterCatalog("pt-BR", ptBRCatalog)
}
