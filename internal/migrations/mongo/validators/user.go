package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "email", "role", "password_hash", "created_at"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 128,
			},
			"email": bson.M{
				"bsonType":  "string",
				"maxLength": 254,
			},
			"role": bson.M{
				"bsonType": "string",
				"enum":     []string{"admin", "provider", "patient"},
			},
			"provider_id":   bson.M{"bsonType": "string"},
			"password_hash": bson.M{"bsonType": "string", "minLength": 1},
			"created_at":    bson.M{"bsonType": "date"},
		},
	},
}
