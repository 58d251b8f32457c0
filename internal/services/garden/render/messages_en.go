package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "garden.desc.seed", "a seed")
	message.SetString(lang, "garden.desc.seedling", "a seedling")
	message.SetString(lang, "garden.desc.young", "a young %s")
	message.SetString(lang, "garden.desc.mature", "a mature %s")
	message.SetString(lang, "garden.desc.flowering", "a flowering %s %s")
	message.SetString(lang, "garden.desc.seed_bearing", "a seed-bearing %s %s")

	message.SetString(lang, "garden.observe.plant", "You see %s.")
	message.SetString(lang, "garden.observe.named_plant", "You see %s, %s.")
	message.SetString(lang, "garden.observe.generation", "This is a generation %d plant.")
	message.SetString(lang, "garden.observe.dead", "It has died. Harvest it to plant a new seed.")
	message.SetString(lang, "garden.observe.wilted", "It looks wilted and droopy. Water it before it dies.")
	message.SetString(lang, "garden.observe.soil_dry", "The soil is bone dry.")
	message.SetString(lang, "garden.observe.soil_drying", "The soil is drying out.")
	message.SetString(lang, "garden.observe.soil_damp", "The soil is damp.")
	message.SetString(lang, "garden.observe.soil_wet", "The soil is dark and wet.")
	message.SetString(lang, "garden.observe.someone", "someone")
	message.SetString(lang, "garden.observe.watered_by", "%s was here and watered it for you!")
	message.SetString(lang, "garden.observe.fertilized", "The fertilizer is still working.")
	message.SetString(lang, "garden.observe.petals", "Loose petals are scattered around the stem.")
	message.SetString(lang, "garden.observe.harvest_ready", "Its seeds are ready for harvest.")

	message.SetString(lang, "garden.alert.watered", "You water the plant.")
	message.SetString(lang, "garden.alert.watered_for_owner", "You water the plant for its owner. How neighborly!")
	message.SetString(lang, "garden.alert.shake_one", "You shake the plant. A single coin drops to the ground!")
	message.SetString(lang, "garden.alert.shake_many", "You shake the plant. %d coins rain down!")
	message.SetString(lang, "garden.alert.search_found", "You find a %s hidden among the flowers!")
	message.SetString(lang, "garden.alert.search_miss", "You part the leaves and search carefully, but find nothing.")
	message.SetString(lang, "garden.alert.fertilize", "You work the fertilizer into the soil. The plant perks up.")
	message.SetString(lang, "garden.alert.harvest", "Goodbye, %s. You collect %d coins' worth of seeds.")
	message.SetString(lang, "garden.alert.harvest_salvage", "You pull up what remains of %s and salvage %d coins.")
	message.SetString(lang, "garden.alert.rename", "The plant shall henceforth be known as %s.")
}
