// Package ports defines the interfaces (ports) that connect the application
// layer to hardware and display adapters.
//
// Ports are the boundary between the application core and the outside world.
// They describe what the core needs from buttons, the radio and the display
// without specifying how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [ButtonSource]: samples the four direction buttons once per tick
//   - [Radio]: discovers and connects wireless peripherals
//   - [Session]: a live link to one peripheral
//   - [FrameSink]: presents the grid on a display
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters (internal/adapters) implement them for GPIO character devices,
// BLE, the Linux framebuffer, a terminal, and in-memory simulations.
package ports
