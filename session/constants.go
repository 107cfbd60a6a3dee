package session

// GATT layout of the IMU peripheral firmware
const (
	IMUServiceUUID = "0b91a798-23b1-4369-9d45-a3a26d936904"

	AccelXUUID      = "026080c9-dc3a-401b-829c-2ee3b5565200"
	AccelYUUID      = "e0a0b53e-5c53-4acf-bf79-39d2982362e9"
	AccelZUUID      = "94b54966-faa7-48c1-9b53-7e44a9a872be"
	CurrentTimeUUID = "72d913bb-e8df-44b8-b8ec-4f098978e0be"

	// Published by the firmware but not polled yet
	GyroXUUID = "d30c8099-5b3e-4d4f-9c42-40b47a3f71ea"
	GyroYUUID = "734c0d37-c4fc-4265-953f-0aa24d28b1a5"
	GyroZUUID = "e51f3e60-3fdd-4591-9910-87362247c68d"
)
