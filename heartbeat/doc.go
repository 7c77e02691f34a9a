// Package heartbeat implements the heartbeat service: a one-time startup
// record followed by a recurring "still alive" record.
//
// The service owns no timers. The hosting runtime calls OnStart once after
// initialization and registers Task with a scheduler at a fixed period:
//
//	svc := heartbeat.NewService(heartbeat.Config{}, sugar)
//	svc.OnStart()
//	sched.Schedule("heartbeat", time.Minute, svc.Task())
package heartbeat
