package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.MustParse("pt-BR")

	message.SetString(lang, "garden.desc.seed", "uma semente")
	message.SetString(lang, "garden.desc.seedling", "uma muda")
	message.SetString(lang, "garden.desc.young", "um broto de %s")
	message.SetString(lang, "garden.desc.mature", "um pé maduro de %s")
	message.SetString(lang, "garden.desc.flowering", "um pé de %[2]s florido, cor %[1]s")
	message.SetString(lang, "garden.desc.seed_bearing", "um pé de %[2]s cheio de sementes, cor %[1]s")

	message.SetString(lang, "garden.observe.plant", "Você vê %s.")
	message.SetString(lang, "garden.observe.named_plant", "Você vê %s, %s.")
	message.SetString(lang, "garden.observe.generation", "Esta é uma planta de geração %d.")
	message.SetString(lang, "garden.observe.dead", "Ela morreu. Faça a colheita para plantar uma nova semente.")
	message.SetString(lang, "garden.observe.wilted", "Ela está murcha e caída. Regue antes que morra.")
	message.SetString(lang, "garden.observe.soil_dry", "O solo está completamente seco.")
	message.SetString(lang, "garden.observe.soil_drying", "O solo está secando.")
	message.SetString(lang, "garden.observe.soil_damp", "O solo está úmido.")
	message.SetString(lang, "garden.observe.soil_wet", "O solo está escuro e molhado.")
	message.SetString(lang, "garden.observe.someone", "alguém")
	message.SetString(lang, "garden.observe.watered_by", "%s passou por aqui e regou por você!")
	message.SetString(lang, "garden.observe.fertilized", "O fertilizante ainda está fazendo efeito.")
	message.SetString(lang, "garden.observe.petals", "Pétalas soltas estão espalhadas ao redor do caule.")
	message.SetString(lang, "garden.observe.harvest_ready", "As sementes estão prontas para a colheita.")

	message.SetString(lang, "garden.alert.watered", "Você rega a planta.")
	message.SetString(lang, "garden.alert.watered_for_owner", "Você rega a planta pelo dono. Que gentileza!")
	message.SetString(lang, "garden.alert.shake_one", "Você sacode a planta. Uma única moeda cai no chão!")
	message.SetString(lang, "garden.alert.shake_many", "Você sacode a planta. %d moedas caem no chão!")
	message.SetString(lang, "garden.alert.search_found", "Você encontra %s escondida entre as flores!")
	message.SetString(lang, "garden.alert.search_miss", "Você afasta as folhas e procura com cuidado, mas não encontra nada.")
	message.SetString(lang, "garden.alert.fertilize", "Você mistura o fertilizante ao solo. A planta se anima.")
	message.SetString(lang, "garden.alert.harvest", "Adeus, %s. Você recolhe %d moedas em sementes.")
	message.SetString(lang, "garden.alert.harvest_salvage", "Você arranca o que restou de %s e recupera %d moedas.")
	message.SetString(lang, "garden.alert.rename", "A planta passa a se chamar %s.")
}
