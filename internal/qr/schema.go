package qr

// payloadSchema describes the structured QR payload issued by the
// registration service. A JSON object missing both id and studentId is not a
// structured payload and falls through to the next resolver branch.
const payloadSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "id": {"type": ["string", "number"]},
    "studentId": {"type": ["string", "number"]},
    "fullName": {"type": "string"},
    "email": {"type": "string"},
    "phoneNumber": {"type": "string"},
    "college": {"type": "string"},
    "grade": {"type": "string"},
    "major": {"type": "string"},
    "address": {"type": "string"},
    "profilePhoto": {"type": "string"}
  },
  "anyOf": [
    {"required": ["studentId"]},
    {"required": ["id"]}
  ]
}`
