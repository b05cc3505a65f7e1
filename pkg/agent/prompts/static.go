package prompts

// AgentLoopPrompt describes the agent's operational cycle.
const AgentLoopPrompt = `<agent_loop>
You operate in an agent loop, iteratively completing your task through these steps:
1. Analyze: Understand the current state, focusing on the latest tool results
2. Think: Plan the next step before acting
3. Act: Call one or more tools; they run in the order you give them
4. Iterate: Read the results and repeat until the task is done
5. Finish: When nothing is left to do, answer with a final message and no tool calls

A response without any tool call ends the loop. Only stop once the task is complete.
</agent_loop>`

// ChainOfThoughtPrompt asks the model to put its reasoning in thinking tags,
// which are stripped before the message enters the transcript.
const ChainOfThoughtPrompt = `<chain_of_thought>
Before calling a tool or giving a final answer, outline your reasoning inside <thinking> and </thinking> tags.
Keep it short: what you know, what you will do next and why.
</chain_of_thought>`

// ToolUseRulesPrompt outlines the rules for using tools.
const ToolUseRulesPrompt = `<tool_use_rules>
- Only call tools that are explicitly provided. Do not invent tool names or parameters.
- Pass arguments exactly as the tool schema describes them. Unknown parameters are rejected.
- When a tool call fails, read the error, fix the arguments and try again. Do not repeat the same mistake.
- Save prerequisites before the things that reference them.
</tool_use_rules>`

// XMLToolCallingPrompt teaches models without native function calling to emit
// tool calls as XML blocks.
const XMLToolCallingPrompt = `<tool_calling>
Call tools by writing XML blocks in your response:

<tool>
<tool_name>tool_name_here</tool_name>
<arguments>
  <param_key>param_value</param_key>
</arguments>
</tool>

Each argument is its own element inside <arguments>. Escape special characters with XML entities
(& as &amp;, < as &lt;, > as &gt;) or wrap the value in a CDATA section.
Arrays and objects may be written as a JSON value inside the element.
</tool_calling>`
