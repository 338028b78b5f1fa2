// Package events carries lifecycle and process milestones out of the
// kernel and the scheduler.
//
// Producers only see the Sink interface. The Bus implementation fans each
// event out to buffered subscriber channels; a slow subscriber misses events
// instead of stalling a task. MessageTemplateEngine turns an event into a
// log line:
//
//	bus := events.NewBus()
//	ch := bus.Subscribe(0)
//	engine := events.NewMessageTemplateEngine()
//	for ev := range ch {
//		fmt.Println(engine.Render(ev))
//	}
package events
