package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"patientName",
			"preferredTime",
			"providerId",
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
				"maxLength": 100,
			},

			"age": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
				"maximum":  150,
			},

			"phone": bson.M{
				"bsonType": "string",
				"pattern":  `^\+[1-9]\d{6,14}$`,
			},

			"preferredTime": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 32,
			},

			"providerId": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"Pending",
					"In Progress",
					"Queued",
					"Completed",
				},
			},

			"createdAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}
