package handlers

import "time"

var timeNow = time.Now
