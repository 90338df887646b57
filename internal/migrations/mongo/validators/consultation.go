package validators

import "go.mongodb.org/mongo-driver/bson"

var ConsultationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"patientName",
			"providerId",
			"providerName",
			"status",
			"createdAt",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"patientName": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 120,
			},

			"providerId": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
			},

			"providerName": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 120,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"Pending",
					"In-Progress",
					"Completed",
					"No-Show",
					"Cancelled",
				},
			},

			"urgent": bson.M{
				"bsonType": "bool",
			},

			"clerkingData": bson.M{
				"bsonType": "object",
			},

			"treatments": bson.M{
				"bsonType": "array",
				"maxItems": 50,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"text"},
					"properties": bson.M{
						"text":     bson.M{"bsonType": "string", "minLength": 1, "maxLength": 500},
						"duration": bson.M{"bsonType": "string"},
					},
				},
			},

			"createdAt": bson.M{
				"bsonType": "date",
			},

			"completedAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}
