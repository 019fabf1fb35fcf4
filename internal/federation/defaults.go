package federation

import "robofed/internal/models"

// Definition — статическое описание координатора федерации
type Definition struct {
	ShortAlias string
	LongAlias  string
	// Endpoints: сеть -> способ доступа -> URL
	Endpoints map[string]map[string]string
}

// DefaultCoordinators возвращает встроенный состав федерации.
//
// Состав фиксируется на этапе сборки: федеративный клиент доверяет
// только заранее известным координаторам, динамического discovery нет
func DefaultCoordinators() []Definition {
	return []Definition{
		{
			ShortAlias: "exp",
			LongAlias:  "Experimental",
			Endpoints: map[string]map[string]string{
				models.NetworkMainnet: {
					models.OriginClearnet: "https://unsafe.robosats.org",
					models.OriginOnion:    "http://robosats6tkf3eva7x2voqso3a5wcorsnw34jveyxfqi2fu7oyheasid.onion",
					models.OriginI2P:      "http://robosats.i2p",
				},
				models.NetworkTestnet: {
					models.OriginClearnet: "https://unsafe.testnet.robosats.org",
					models.OriginOnion:    "http://robotestagw3dcxmd66r4rgksb4nmmr43fh77bzn2ia2eucduyeafnyd.onion",
				},
			},
		},
		{
			ShortAlias: "temple",
			LongAlias:  "Temple of Sats",
			Endpoints: map[string]map[string]string{
				models.NetworkMainnet: {
					models.OriginClearnet: "https://unsafe.mainnet.templeofsats.org",
					models.OriginOnion:    "http://ngdk7ocdzmz5kzsysa3om6du7ycj2evxp2f2olfkyq37htx3gllwp2yd.onion",
				},
				models.NetworkTestnet: {
					models.OriginClearnet: "https://unsafe.testnet.templeofsats.org",
					models.OriginOnion:    "http://jpp3w5tpxtyg6lifonisdszpriiapszzem4wod2zsdweyfenlsxeoxid.onion",
				},
			},
		},
		{
			ShortAlias: "satstralia",
			LongAlias:  "Satstralia",
			Endpoints: map[string]map[string]string{
				models.NetworkMainnet: {
					models.OriginClearnet: "https://unsafe.satstralia.com",
					models.OriginOnion:    "http://satstraoq35jffvkgpfoqld32nzw2siuvowanruindbfojowpwsjdgad.onion",
					models.OriginI2P:      "http://satstralia.i2p",
				},
				models.NetworkTestnet: {
					models.OriginClearnet: "https://unsafe.testnet.satstralia.com",
					models.OriginOnion:    "http://testraliar7xkhos2gipv2k65obykofb4jqzl5l4danfryacifi4t7qd.onion",
				},
			},
		},
		{
			ShortAlias: "lake",
			LongAlias:  "TheBigLake",
			Endpoints: map[string]map[string]string{
				models.NetworkMainnet: {
					models.OriginClearnet: "https://unsafe.thebiglake.org",
					models.OriginOnion:    "http://4t4jxmivv6uqej6xzx2jx3fxh75gtt65v3szjoqmc4ugdlhipzdat6yd.onion",
				},
				models.NetworkTestnet: {
					models.OriginClearnet: "https://unsafe.testnet.thebiglake.org",
					models.OriginOnion:    "http://ghbtv7lhoyhomyir4xvxaeyqgx4ylxksia343jaat3njqqlkqpdjqcyd.onion",
				},
			},
		},
	}
}
