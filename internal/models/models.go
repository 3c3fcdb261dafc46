package models

// All lists every persisted model in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Instructor{},
		&Group{},
		&GroupMember{},
		&Attendance{},
		&SessionQRCode{},
		&ReminderLog{},
		&HealthForm{},
		&Notification{},
	}
}
