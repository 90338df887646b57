package validators

import "go.mongodb.org/mongo-driver/bson"

var SlotClaimValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "provider_id", "preferred_time", "holders"},
		"properties": bson.M{
			"_id":            bson.M{"bsonType": "string"},
			"provider_id":    bson.M{"bsonType": "string", "minLength": 1},
			"preferred_time": bson.M{"bsonType": "string", "minLength": 1},
			"holders": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}

// ActiveSlotValidator allows an empty booking_id: the slot is free.
var ActiveSlotValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "booking_id"},
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string", "minLength": 1},
			"booking_id": bson.M{"bsonType": "string"},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}
