package pointers

func Int(v int) *int    { return &v }
func Bool(v bool) *bool { return &v }
