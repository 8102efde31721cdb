// Package contexts names the execution contexts reported in function
// transition frames.
//
// The context byte is the Cortex-M exception number active when the
// instrumentation hook ran: 0 for thread mode, 1-15 for system exceptions
// and 16 upward for external interrupts. The built-in catalog covers the
// architectural exceptions; a YAML file can add or override names, which
// is how vendor interrupt names (USART1, TIM2, ...) are supplied:
//
//	contexts:
//	  37: USART1
//	  44: TIM2
package contexts
